// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/boost"
	"github.com/vechain/vevote/builtin/escrow/bribe"
	"github.com/vechain/vevote/builtin/escrow/checkpoint"
	"github.com/vechain/vevote/builtin/escrow/epoch"
	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/managed"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/escrow/voter"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/kv"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

var logger = log.New("pkg", "escrow")

// SetLogger derives the loggers of the ledger packages from l.
func SetLogger(l log.Logger) {
	logger = l.With("pkg", "escrow")
	boost.SetLogger(l.With("pkg", "boost"))
	solidity.SetLogger(l.With("pkg", "solidity"))
}

var slotClock = thor.NameToSlot("clock")

// Capabilities checked through the Authorizer.
const (
	ActionGovern         = "govern"
	ActionFeeSource      = "fee-source"
	ActionEmissionSource = "emission-source"
	ActionManagedCreator = "managed-creator"
)

// Custody moves tokens between accounts.
type Custody interface {
	BalanceOf(token thor.Address, holder thor.Address) (*big.Int, error)
	Transfer(token, from, to thor.Address, amount *big.Int) error
}

// Authorizer tells whether caller holds the capability for action.
type Authorizer interface {
	HasCapability(caller thor.Address, action string) bool
}

// PriceOracle quotes an amount of token in USD, scaled by thor.Precision.
type PriceOracle interface {
	Quote(token thor.Address, amount *big.Int) (*big.Int, error)
}

// Params are the protocol values of a deployment. EpochWidth and MaxLockTime
// are defaults that values stored in state take precedence over.
type Params struct {
	Token       thor.Address
	EpochWidth  uint64
	MaxLockTime uint64
	BribeRouter thor.Address

	BoostReserve   thor.Address
	BoostRate      uint64
	BoostMinUSD    *big.Int
	BoostSecondary []thor.Address
}

// DefaultParams returns params with protocol defaults for token.
func DefaultParams(token thor.Address) Params {
	return Params{
		Token:       token,
		EpochWidth:  thor.DefaultEpochWidth,
		MaxLockTime: thor.DefaultMaxLockTime,
		BoostRate:   thor.DefaultBoostRate,
	}
}

// Deps are the collaborators of the ledger. Custody must write to the same state
// as the ledger for transfers to commit atomically with it. Events may be nil.
type Deps struct {
	Custody    Custody
	Authorizer Authorizer
	Oracle     PriceOracle
	Events     logdb.Writer
}

// Call identifies who performs a mutation and when.
type Call struct {
	Caller thor.Address
	Time   uint64
}

// Escrow is the vote-escrow ledger. Mutations are serialized and each one is
// committed to the store atomically or not at all.
type Escrow struct {
	mu    sync.RWMutex
	state *state.State
	store kv.Store

	params   Params
	schedule epoch.Schedule
	clock    *solidity.Raw[uint64]
	pending  []*logdb.Event

	custody Custody
	auth    Authorizer
	events  logdb.Writer

	locks   *lock.Service
	points  *checkpoint.Service
	voter   *voter.Service
	bribes  *bribe.Service
	managed *managed.Service
	boost   *boost.Calculator
}

// New creates the ledger on top of st, committing into store.
func New(st *state.State, store kv.Store, params Params, deps Deps) *Escrow {
	sctx := solidity.NewContext(thor.EscrowNamespace, st)

	epochWidth := solidity.NewConfigVariable("escrow-epoch-width", params.EpochWidth)
	maxLockTime := solidity.NewConfigVariable("escrow-max-lock-time", params.MaxLockTime)
	boostRate := solidity.NewConfigVariable("escrow-boost-rate", params.BoostRate)
	for _, v := range []*solidity.ConfigVariable{epochWidth, maxLockTime, boostRate} {
		v.Override(sctx)
	}
	params.EpochWidth = epochWidth.Get()
	params.MaxLockTime = maxLockTime.Get()
	params.BoostRate = boostRate.Get()

	schedule := epoch.NewSchedule(params.EpochWidth)
	locks := lock.New(sctx)
	points := checkpoint.New(sctx, params.EpochWidth)
	bribes := bribe.New(solidity.NewContext(thor.BribeNamespace, st), schedule)

	return &Escrow{
		state:    st,
		store:    store,
		params:   params,
		schedule: schedule,
		clock:    solidity.NewRaw[uint64](sctx, slotClock),
		custody:  deps.Custody,
		auth:     deps.Authorizer,
		events:   deps.Events,
		locks:    locks,
		points:   points,
		voter:    voter.New(solidity.NewContext(thor.VoterNamespace, st), schedule, bribes),
		bribes:   bribes,
		managed:  managed.New(locks, points, schedule, params.MaxLockTime),
		boost: boost.New(boost.Params{
			Reserve:     params.BoostReserve,
			Token:       params.Token,
			RateBps:     params.BoostRate,
			MinUSD:      params.BoostMinUSD,
			MaxLockTime: params.MaxLockTime,
			Secondary:   params.BoostSecondary,
		}, deps.Custody, deps.Oracle),
	}
}

// Params returns the effective protocol values.
func (e *Escrow) Params() Params {
	return e.params
}

// Schedule returns the epoch schedule.
func (e *Escrow) Schedule() epoch.Schedule {
	return e.schedule
}

// mutate runs fn as one atomic ledger mutation.
func (e *Escrow) mutate(op string, call Call, fn func() error) (err error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		observeOp(op, start, err)
	}()

	last, err := e.clock.Get()
	if err != nil {
		return err
	}
	if call.Time < last {
		return errors.WithMessagef(reverts.ErrInvalidTimestamp, "%d before %d", call.Time, last)
	}

	rev := e.state.NewCheckpoint()
	e.pending = nil
	if err := e.apply(call, fn); err != nil {
		e.state.RevertTo(rev)
		e.pending = nil
		if reverts.IsRevertErr(err) {
			logger.Debug("operation reverted", "op", op, "caller", call.Caller, "err", err)
		} else {
			logger.Info("operation failed", "op", op, "caller", call.Caller, "err", err)
		}
		return err
	}
	logger.Debug("operation applied", "op", op, "caller", call.Caller, "time", call.Time, "events", len(e.pending))
	metricClock().Set(int64(call.Time))

	if e.events != nil && len(e.pending) > 0 {
		if err := e.events.Write(e.pending); err != nil {
			logger.Warn("failed to record events", "op", op, "err", err)
		}
	}
	e.pending = nil
	return nil
}

func (e *Escrow) apply(call Call, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	if err := e.clock.Upsert(call.Time); err != nil {
		return err
	}
	return e.state.Commit(e.store)
}

// emit queues an event, written once the mutation commits.
func (e *Escrow) emit(call Call, ev *logdb.Event) {
	ev.Time = call.Time
	if ev.Account.IsZero() {
		ev.Account = call.Caller
	}
	e.pending = append(e.pending, ev)
}

func (e *Escrow) require(call Call, action string) error {
	if e.auth == nil || !e.auth.HasCapability(call.Caller, action) {
		return errors.WithMessagef(reverts.ErrAccessDenied, "%v lacks %s", call.Caller, action)
	}
	return nil
}

// authorized returns the lock if caller owns it or is approved for it.
func (e *Escrow) authorized(call Call, id uint64) (*lock.Lock, error) {
	l, err := e.locks.GetExisting(id)
	if err != nil {
		return nil, err
	}
	if !l.IsApprovedOrOwner(call.Caller) {
		return nil, errors.WithMessagef(reverts.ErrAccessDenied, "%v on lock %d", call.Caller, id)
	}
	return l, nil
}

func (e *Escrow) checkVotingOpen() error {
	paused, err := e.voter.Paused()
	if err != nil {
		return err
	}
	if paused {
		return reverts.ErrDisableDuringVotingPaused
	}
	return nil
}

//
// Queries - no state change
//

// Now returns the time of the last applied mutation.
func (e *Escrow) Now() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Get()
}

func (e *Escrow) now() uint64 {
	t, err := e.clock.Get()
	if err != nil {
		logger.Warn("failed to read clock", "err", err)
	}
	return t
}

// Lock returns a copy of a lock, failing with ErrInvalidTokenID for unknown ids.
// Burned locks are returned with their final state.
func (e *Escrow) Lock(id uint64) (*lock.Lock, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, err := e.known(id)
	if err != nil {
		return nil, err
	}
	return l.Copy(), nil
}

// known returns a lock that was created at some point.
func (e *Escrow) known(id uint64) (*lock.Lock, error) {
	l, err := e.locks.Get(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.WithMessagef(reverts.ErrInvalidTokenID, "lock %d", id)
	}
	return l, nil
}

// Locked returns the balance driving the lock's voting power.
func (e *Escrow) Locked(id uint64) (checkpoint.LockedBalance, error) {
	l, err := e.Lock(id)
	if err != nil {
		return checkpoint.LockedBalance{}, err
	}
	return l.Locked(), nil
}

func (e *Escrow) IsTransferable(id uint64) (bool, error) {
	l, err := e.Lock(id)
	if err != nil {
		return false, err
	}
	return l.IsTransferable(), nil
}

// LockCount returns the number of ids ever assigned.
func (e *Escrow) LockCount() (uint64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.locks.Count()
}

// BalanceOfNFT returns the voting power of a lock at the ledger time.
func (e *Escrow) BalanceOfNFT(id uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balanceOfAt(id, e.now())
}

// BalanceOfAt returns the voting power of a lock at t.
func (e *Escrow) BalanceOfAt(id uint64, t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balanceOfAt(id, t)
}

func (e *Escrow) balanceOfAt(id uint64, t uint64) (*big.Int, error) {
	if _, err := e.known(id); err != nil {
		return nil, err
	}
	return e.points.BalanceOfAt(id, t)
}

// TotalSupply returns the total voting power at the ledger time.
func (e *Escrow) TotalSupply() (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.points.TotalSupplyAt(e.now())
}

// TotalSupplyAt returns the total voting power at t.
func (e *Escrow) TotalSupplyAt(t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.points.TotalSupplyAt(t)
}

// PermanentSupplyAt returns the permanently locked amount at t.
func (e *Escrow) PermanentSupplyAt(t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.points.PermanentSupplyAt(t)
}

// Supply returns the sum of principal held by the ledger.
func (e *Escrow) Supply() (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.locks.Supply()
}
