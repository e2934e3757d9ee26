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

	"github.com/vechain/vevote/acl"
	"github.com/vechain/vevote/builtin/custody"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/lvldb"
	"github.com/vechain/vevote/oracle"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

const (
	week = thor.Week
	day  = thor.Day

	// genesis is the first call time of every test, one day into an epoch.
	genesis = 100*week + day
)

var (
	token     = thor.BytesToAddress([]byte("vevote"))
	secondary = thor.BytesToAddress([]byte("secondary"))
	bribeTkn  = thor.BytesToAddress([]byte("bribe-token"))

	gov      = thor.BytesToAddress([]byte("gov"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
	carol    = thor.BytesToAddress([]byte("carol"))
	router   = thor.BytesToAddress([]byte("router"))
	reserve  = thor.BytesToAddress([]byte("reserve"))
	minter   = thor.BytesToAddress([]byte("minter"))
	feeSrc   = thor.BytesToAddress([]byte("fees"))
	relayer  = thor.BytesToAddress([]byte("relayer"))
	stranger = thor.BytesToAddress([]byte("stranger"))
)

// ToWei converts whole tokens into base units.
func ToWei(amount uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(amount), thor.Precision)
}

type EscrowTest struct {
	*Escrow
	t      *testing.T
	st     *state.State
	book   *custody.Book
	oracle *oracle.Static
	events *logdb.LogDB
	at     uint64
}

type testOption func(st *state.State, p *Params)

func withBoost(rate uint64, minUSD *big.Int) testOption {
	return func(_ *state.State, p *Params) {
		p.BoostReserve = reserve
		p.BoostRate = rate
		p.BoostMinUSD = minUSD
		p.BoostSecondary = []thor.Address{secondary}
	}
}

func newTest(t *testing.T, opts ...testOption) *EscrowTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	events, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		events.Close()
		db.Close()
	})

	st := state.New(db)
	params := DefaultParams(token)
	params.BoostRate = 0
	params.BribeRouter = router
	for _, opt := range opts {
		opt(st, &params)
	}

	book := custody.New(thor.CustodyNamespace, st)
	prices := oracle.New()
	auth := acl.New(map[string][]thor.Address{
		ActionGovern:         {gov},
		ActionFeeSource:      {feeSrc},
		ActionEmissionSource: {minter},
		ActionManagedCreator: {gov},
	})

	esc := New(st, db, params, Deps{
		Custody:    book,
		Authorizer: auth,
		Oracle:     prices,
		Events:     events,
	})
	return &EscrowTest{
		Escrow: esc,
		t:      t,
		st:     st,
		book:   book,
		oracle: prices,
		events: events,
		at:     genesis,
	}
}

// Call returns a call of caller at the test time.
func (et *EscrowTest) Call(caller thor.Address) Call {
	return Call{Caller: caller, Time: et.at}
}

// Advance moves the test time forward by d seconds.
func (et *EscrowTest) Advance(d uint64) *EscrowTest {
	et.at += d
	return et
}

// Tick moves the ledger clock to the test time.
func (et *EscrowTest) Tick() *EscrowTest {
	require.NoError(et.t, et.Checkpoint(et.Call(gov)))
	return et
}

// Fund mints amount whole tokens of tkn to holder.
func (et *EscrowTest) Fund(tkn, holder thor.Address, amount uint64) *EscrowTest {
	require.NoError(et.t, et.book.Mint(tkn, holder, ToWei(amount)))
	return et
}

// NewLock funds owner and creates a lock of amount whole tokens without boost.
func (et *EscrowTest) NewLock(owner thor.Address, amount uint64, duration uint64) uint64 {
	et.Fund(token, owner, amount)
	id, err := et.CreateLockWithoutBoost(et.Call(owner), ToWei(amount), duration)
	require.NoError(et.t, err)
	return id
}

// NewGauge creates a gauge through governance.
func (et *EscrowTest) NewGauge() thor.Address {
	g, err := et.CreateGauge(et.Call(gov))
	require.NoError(et.t, err)
	return g
}

func (et *EscrowTest) balanceOf(tkn, holder thor.Address) *big.Int {
	bal, err := et.book.BalanceOf(tkn, holder)
	require.NoError(et.t, err)
	return bal
}

func (et *EscrowTest) AssertCustody(tkn, holder thor.Address, expected *big.Int) *EscrowTest {
	assert.Equal(et.t, expected.String(), et.balanceOf(tkn, holder).String(), "custody balance mismatch for %v", holder)
	return et
}

func (et *EscrowTest) AssertPower(id uint64, t uint64, expected *big.Int) *EscrowTest {
	power, err := et.BalanceOfAt(id, t)
	require.NoError(et.t, err)
	assert.Equal(et.t, expected.String(), power.String(), "power of lock %d at %d mismatch", id, t)
	return et
}

func (et *EscrowTest) AssertSupply(expected *big.Int) *EscrowTest {
	supply, err := et.Supply()
	require.NoError(et.t, err)
	assert.Equal(et.t, expected.String(), supply.String(), "supply mismatch")
	return et
}

func (et *EscrowTest) AssertTransferable(id uint64, expected bool) *EscrowTest {
	ok, err := et.IsTransferable(id)
	require.NoError(et.t, err)
	assert.Equal(et.t, expected, ok, "transferability of lock %d mismatch", id)
	return et
}

func (et *EscrowTest) AssertGaugeSupply(gauge thor.Address, t uint64, expected *big.Int) *EscrowTest {
	supply, err := et.TotalSupplyPerEpoch(gauge, t)
	require.NoError(et.t, err)
	assert.Equal(et.t, expected.String(), supply.String(), "gauge supply at %d mismatch", t)
	return et
}

// expectedPower is the power at t of a decaying lock of amount whole tokens
// last checkpointed at from.
func expectedPower(amount uint64, from, end, t uint64) *big.Int {
	if t >= end {
		return new(big.Int)
	}
	slope := new(big.Int).Div(ToWei(amount), new(big.Int).SetUint64(end-from))
	slope.Mul(slope, new(big.Int).SetUint64(t-from))
	return slope.Sub(ToWei(amount), slope)
}
