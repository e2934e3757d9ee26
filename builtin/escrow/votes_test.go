// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

func TestVoteLandsInNextEpoch(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	id := et.NewLock(alice, 1, maxLock)

	power, err := et.BalanceOfAt(id, genesis)
	require.NoError(t, err)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))

	et.AssertGaugeSupply(gauge, genesis, new(big.Int)).
		AssertGaugeSupply(gauge, 101*week, power)

	weight, err := et.GaugeWeightAt(gauge, 101*week)
	require.NoError(t, err)
	assert.Equal(t, power, weight)
	total, err := et.TotalWeightAt(101*week + 3*day)
	require.NoError(t, err)
	assert.Equal(t, power, total)

	alloc, err := et.Allocation(id)
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, 101*week, alloc.Epoch)

	assert.ErrorIs(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}), reverts.ErrAlreadyVoted)

	// next epoch the lock votes again into the following one
	et.Advance(week)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))
	et.AssertGaugeSupply(gauge, 101*week, power).
		AssertGaugeSupply(gauge, 102*week, expectedPower(1, genesis, 152*week, et.at))
}

func TestVoteSplit(t *testing.T) {
	et := newTest(t)
	g1, g2 := et.NewGauge(), et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.LockPermanent(et.Call(alice), id))

	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{g1, g2}, []uint64{1, 3}))
	et.AssertGaugeSupply(g1, 101*week, ToWei(25)).
		AssertGaugeSupply(g2, 101*week, ToWei(75))

	bal, err := et.GaugeBalanceOfAt(g2, id, 101*week)
	require.NoError(t, err)
	assert.Equal(t, ToWei(75), bal)
}

func TestVoteValidation(t *testing.T) {
	et := newTest(t)
	g1, g2 := et.NewGauge(), et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.KillGauge(et.Call(gov), g2))

	tests := []struct {
		name    string
		caller  thor.Address
		gauges  []thor.Address
		weights []uint64
		want    error
	}{
		{"not owner", bob, []thor.Address{g1}, []uint64{1}, reverts.ErrAccessDenied},
		{"length mismatch", alice, []thor.Address{g1}, []uint64{1, 2}, reverts.ErrMismatchArrayLen},
		{"empty", alice, nil, nil, reverts.ErrMismatchArrayLen},
		{"zero weight", alice, []thor.Address{g1}, []uint64{0}, reverts.ErrZeroAmount},
		{"duplicate", alice, []thor.Address{g1, g1}, []uint64{1, 1}, reverts.ErrDuplicateGauge},
		{"dead gauge", alice, []thor.Address{g2}, []uint64{1}, reverts.ErrGaugeNotAlive},
		{"unknown gauge", alice, []thor.Address{stranger}, []uint64{1}, reverts.ErrGaugeNotAlive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, et.Vote(et.Call(tt.caller), id, tt.gauges, tt.weights), tt.want)
		})
	}

	expired := et.NewLock(bob, 1, week)
	et.at = 101 * week
	assert.ErrorIs(t, et.Vote(et.Call(bob), expired, []thor.Address{g1}, []uint64{1}), reverts.ErrZeroAmount)
}

func TestResetAndPoke(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))

	et.Advance(2 * day)
	require.NoError(t, et.Poke(et.Call(alice), id))
	et.AssertGaugeSupply(gauge, 101*week, expectedPower(100, genesis, 152*week, et.at))

	require.NoError(t, et.Reset(et.Call(alice), id))
	et.AssertGaugeSupply(gauge, 101*week, new(big.Int))
	alloc, err := et.Allocation(id)
	require.NoError(t, err)
	assert.Nil(t, alloc)

	// poking without votes is a no-op
	require.NoError(t, et.Poke(et.Call(alice), id))
	et.AssertGaugeSupply(gauge, 101*week, new(big.Int))
}

func TestResetKeepsRunningEpoch(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))
	power, err := et.GaugeWeightAt(gauge, 101*week)
	require.NoError(t, err)

	et.Advance(week)
	require.NoError(t, et.Reset(et.Call(alice), id))
	et.AssertGaugeSupply(gauge, 101*week, power).
		AssertGaugeSupply(gauge, 102*week, new(big.Int))
}

func TestGaugeGovernance(t *testing.T) {
	et := newTest(t)

	_, err := et.CreateGauge(et.Call(stranger))
	assert.ErrorIs(t, err, reverts.ErrAccessDenied)

	gauge := et.NewGauge()
	gauges, err := et.Gauges()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{gauge}, gauges)

	assert.ErrorIs(t, et.KillGauge(et.Call(stranger), gauge), reverts.ErrAccessDenied)
	require.NoError(t, et.KillGauge(et.Call(gov), gauge))
	assert.ErrorIs(t, et.KillGauge(et.Call(gov), gauge), reverts.ErrGaugeNotAlive)
	g, err := et.Gauge(gauge)
	require.NoError(t, err)
	assert.False(t, g.Alive)

	require.NoError(t, et.ReviveGauge(et.Call(gov), gauge))
	assert.ErrorIs(t, et.ReviveGauge(et.Call(gov), gauge), reverts.ErrGaugeAlive)

	assert.ErrorIs(t, et.WhitelistToken(et.Call(stranger), bribeTkn, true), reverts.ErrAccessDenied)
	require.NoError(t, et.WhitelistToken(et.Call(gov), bribeTkn, true))
	ok, err := et.IsWhitelisted(bribeTkn)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVotingPaused(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))
	managed, err := et.CreateManagedLock(et.Call(gov), carol)
	require.NoError(t, err)

	assert.ErrorIs(t, et.SetVotingPaused(et.Call(stranger), true), reverts.ErrAccessDenied)
	require.NoError(t, et.SetVotingPaused(et.Call(gov), true))
	paused, err := et.VotingPaused()
	require.NoError(t, err)
	assert.True(t, paused)

	call := et.Call(alice)
	for name, err := range map[string]error{
		"vote":   et.Vote(call, id, []thor.Address{gauge}, []uint64{1}),
		"reset":  et.Reset(call, id),
		"poke":   et.Poke(call, id),
		"attach": et.AttachToManagedNFT(call, id, managed),
		"detach": et.DettachFromManagedNFT(call, id),
	} {
		assert.ErrorIs(t, err, reverts.ErrAccessDenied, name)
		assert.ErrorIs(t, err, reverts.ErrDisableDuringVotingPaused, name)
	}

	require.NoError(t, et.SetVotingPaused(et.Call(gov), false))
	require.NoError(t, et.Reset(call, id))
}

func TestNotifyEmissions(t *testing.T) {
	et := newTest(t)
	g1, g2 := et.NewGauge(), et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.LockPermanent(et.Call(alice), id))
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{g1, g2}, []uint64{1, 2}))

	et.Fund(token, minter, 600).Fund(token, stranger, 1)
	assert.ErrorIs(t, et.NotifyEmissions(et.Call(stranger), ToWei(1)), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.NotifyEmissions(et.Call(minter), new(big.Int)), reverts.ErrZeroAmount)

	// no weights in the running epoch, all of it waits
	require.NoError(t, et.NotifyEmissions(et.Call(minter), ToWei(300)))
	c, err := et.Claimable(g1)
	require.NoError(t, err)
	assert.Zero(t, c.Sign())

	et.Advance(week)
	require.NoError(t, et.NotifyEmissions(et.Call(minter), ToWei(300)))

	w1, err := et.GaugeWeightAt(g1, et.at)
	require.NoError(t, err)
	total, err := et.TotalWeightAt(et.at)
	require.NoError(t, err)
	share, err := thor.MulDiv(ToWei(600), w1, total)
	require.NoError(t, err)

	c, err = et.Claimable(g1)
	require.NoError(t, err)
	assert.Equal(t, share, c)
	et.AssertCustody(token, thor.VoterNamespace, ToWei(600)).
		AssertCustody(token, minter, new(big.Int))
}

func TestVoteEvents(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))
	assert.Error(t, et.Vote(et.Call(alice), id, []thor.Address{gauge}, []uint64{1}))

	et.Advance(day)
	require.NoError(t, et.Reset(et.Call(alice), id))

	events, err := et.events.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{LockID: &id}},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"Deposit", "Voted", "Abstained"}, names)
	assert.Equal(t, alice, events[0].Account)
	assert.Equal(t, genesis, events[1].Time)
	assert.Equal(t, gauge, events[1].Gauge)
	assert.Equal(t, genesis+day, events[2].Time)

	created := "GaugeCreated"
	events, err = et.events.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Name: &created}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, gauge, events[0].Gauge)
	assert.Equal(t, gov, events[0].Account)
}
