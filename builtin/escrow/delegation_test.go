// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/thor"
)

func newManaged(et *EscrowTest, owner thor.Address) uint64 {
	id, err := et.CreateManagedLock(et.Call(gov), owner)
	require.NoError(et.t, err)
	return id
}

func TestCreateManagedLock(t *testing.T) {
	et := newTest(t)
	_, err := et.CreateManagedLock(et.Call(stranger), carol)
	assert.ErrorIs(t, err, reverts.ErrAccessDenied)
	_, err = et.CreateManagedLock(et.Call(gov), thor.Address{})
	assert.ErrorIs(t, err, reverts.ErrAccessDenied)

	managed := newManaged(et, carol)
	l, err := et.Lock(managed)
	require.NoError(t, err)
	assert.Equal(t, lock.KindManaged, l.Kind)
	assert.Equal(t, carol, l.Owner)
	et.AssertPower(managed, et.at, new(big.Int))
}

func TestAttachedLock(t *testing.T) {
	et := newTest(t)
	managed := newManaged(et, carol)
	id := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.LockPermanent(et.Call(alice), id))
	total, err := et.TotalSupplyAt(et.at)
	require.NoError(t, err)

	require.NoError(t, et.AttachToManagedNFT(et.Call(alice), id, managed))

	et.AssertTransferable(id, false).
		AssertPower(managed, et.at, ToWei(100)).
		AssertSupply(ToWei(100))
	power, err := et.BalanceOfNFT(id)
	require.NoError(t, err)
	assert.Zero(t, power.Sign())
	after, err := et.TotalSupplyAt(et.at)
	require.NoError(t, err)
	assert.Equal(t, total, after)

	assert.ErrorIs(t, et.Transfer(et.Call(alice), id, bob), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.Withdraw(et.Call(alice), id), reverts.ErrAccessDenied)
	et.Fund(token, alice, 1)
	assert.ErrorIs(t, et.IncreaseAmount(et.Call(alice), id, ToWei(1)), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(alice), id, managed), reverts.ErrAccessDenied)

	et.Advance(week)
	require.NoError(t, et.DettachFromManagedNFT(et.Call(alice), id))

	et.AssertTransferable(id, true).
		AssertPower(managed, et.at, new(big.Int))
	power, err = et.BalanceOfNFT(id)
	require.NoError(t, err)
	assert.Equal(t, ToWei(100), power)
	l, err := et.Lock(id)
	require.NoError(t, err)
	assert.Equal(t, lock.KindPermanent, l.Kind)
	assert.Nil(t, l.Attachment)

	require.NoError(t, et.Transfer(et.Call(alice), id, bob))
	assert.ErrorIs(t, et.DettachFromManagedNFT(et.Call(bob), id), reverts.ErrAccessDenied)
}

func TestDetachRestoresDecayingLock(t *testing.T) {
	et := newTest(t)
	managed := newManaged(et, carol)
	id := et.NewLock(alice, 100, 10*week)
	weight, err := et.BalanceOfAt(id, et.at)
	require.NoError(t, err)

	require.NoError(t, et.AttachToManagedNFT(et.Call(alice), id, managed))
	et.AssertPower(managed, et.at, weight)

	// the lock would have expired, detaching grants it a full duration
	et.at = 120 * week
	require.NoError(t, et.DettachFromManagedNFT(et.Call(alice), id))
	l, err := et.Lock(id)
	require.NoError(t, err)
	assert.Equal(t, lock.KindDecaying, l.Kind)
	assert.Equal(t, 172*week, l.UnlockTime)
	et.AssertPower(id, et.at, expectedPower(100, 120*week, 172*week, et.at)).
		AssertPower(managed, et.at, new(big.Int))
}

func TestAttachValidation(t *testing.T) {
	et := newTest(t)
	managed := newManaged(et, carol)
	id := et.NewLock(alice, 100, maxLock)
	plain := et.NewLock(bob, 10, maxLock)
	short := et.NewLock(alice, 1, week)

	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(alice), id, plain), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(alice), id, 99), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(bob), id, managed), reverts.ErrAccessDenied)
	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(carol), managed, managed), reverts.ErrSameLock)
	assert.ErrorIs(t, et.DettachFromManagedNFT(et.Call(alice), id), reverts.ErrAccessDenied)

	et.at = 101 * week
	assert.ErrorIs(t, et.AttachToManagedNFT(et.Call(alice), short, managed), reverts.ErrLockExpired)
}

func TestAttachMovesVotes(t *testing.T) {
	et := newTest(t)
	gauge := et.NewGauge()
	managed := newManaged(et, carol)

	a := et.NewLock(alice, 100, maxLock)
	require.NoError(t, et.LockPermanent(et.Call(alice), a))
	require.NoError(t, et.Vote(et.Call(alice), a, []thor.Address{gauge}, []uint64{1}))
	et.AssertGaugeSupply(gauge, 101*week, ToWei(100))

	// attaching clears the votes of the lock
	require.NoError(t, et.AttachToManagedNFT(et.Call(alice), a, managed))
	et.AssertGaugeSupply(gauge, 101*week, new(big.Int))
	alloc, err := et.Allocation(a)
	require.NoError(t, err)
	assert.Nil(t, alloc)

	assert.ErrorIs(t, et.Vote(et.Call(alice), a, []thor.Address{gauge}, []uint64{1}), reverts.ErrAccessDenied)
	require.NoError(t, et.Vote(et.Call(carol), managed, []thor.Address{gauge}, []uint64{1}))
	et.AssertGaugeSupply(gauge, 101*week, ToWei(100))

	// the managed lock votes follow its power
	b := et.NewLock(bob, 50, maxLock)
	require.NoError(t, et.LockPermanent(et.Call(bob), b))
	require.NoError(t, et.AttachToManagedNFT(et.Call(bob), b, managed))
	et.AssertGaugeSupply(gauge, 101*week, ToWei(150))

	require.NoError(t, et.DettachFromManagedNFT(et.Call(alice), a))
	et.AssertGaugeSupply(gauge, 101*week, ToWei(50))
	et.AssertPower(a, et.at, ToWei(100))
}
