// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/escrow/voter"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

// voteable returns a lock the caller may vote with.
func (e *Escrow) voteable(call Call, id uint64) (*lock.Lock, error) {
	if err := e.checkVotingOpen(); err != nil {
		return nil, err
	}
	l, err := e.authorized(call, id)
	if err != nil {
		return nil, err
	}
	if l.IsAttached() {
		return nil, errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is attached", id)
	}
	return l, nil
}

// Vote splits the current power of a lock across gauges by weight, effective next epoch.
func (e *Escrow) Vote(call Call, id uint64, gauges []thor.Address, weights []uint64) error {
	return e.mutate("vote", call, func() error {
		if _, err := e.voteable(call, id); err != nil {
			return err
		}
		power, err := e.points.BalanceOfAt(id, call.Time)
		if err != nil {
			return err
		}
		if err := e.voter.Vote(id, power, gauges, weights, call.Time); err != nil {
			return err
		}
		return e.emitVotes(call, id)
	})
}

func (e *Escrow) emitVotes(call Call, id uint64) error {
	alloc, err := e.voter.Allocation(id)
	if err != nil || alloc == nil {
		return err
	}
	for _, v := range alloc.Votes {
		e.emit(call, &logdb.Event{Name: "Voted", LockID: id, Gauge: v.Gauge, Amount: v.Amount})
	}
	return nil
}

// Reset clears the votes of a lock for the upcoming epoch.
func (e *Escrow) Reset(call Call, id uint64) error {
	return e.mutate("reset", call, func() error {
		if _, err := e.voteable(call, id); err != nil {
			return err
		}
		return e.reset(call, id)
	})
}

func (e *Escrow) reset(call Call, id uint64) error {
	alloc, err := e.voter.Allocation(id)
	if err != nil || alloc == nil {
		return err
	}
	if err := e.voter.Reset(id, call.Time); err != nil {
		return err
	}
	for _, v := range alloc.Votes {
		e.emit(call, &logdb.Event{Name: "Abstained", LockID: id, Gauge: v.Gauge, Amount: v.Amount})
	}
	return nil
}

// Poke re-applies the votes of a lock with its current power.
func (e *Escrow) Poke(call Call, id uint64) error {
	return e.mutate("poke", call, func() error {
		if _, err := e.voteable(call, id); err != nil {
			return err
		}
		return e.poke(call, id)
	})
}

func (e *Escrow) poke(call Call, id uint64) error {
	power, err := e.points.BalanceOfAt(id, call.Time)
	if err != nil {
		return err
	}
	if err := e.voter.Poke(id, power, call.Time); err != nil {
		return err
	}
	return e.emitVotes(call, id)
}

// Allocation returns the votes of a lock, nil if it has none.
func (e *Escrow) Allocation(id uint64) (*voter.Allocation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.Allocation(id)
}

//
// Governance
//

// CreateGauge registers a new gauge.
func (e *Escrow) CreateGauge(call Call) (gauge thor.Address, err error) {
	err = e.mutate("create_gauge", call, func() error {
		if err := e.require(call, ActionGovern); err != nil {
			return err
		}
		gauge, err = e.voter.CreateGauge(call.Time)
		if err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "GaugeCreated", Gauge: gauge})
		return nil
	})
	return gauge, err
}

func (e *Escrow) KillGauge(call Call, gauge thor.Address) error {
	return e.mutate("kill_gauge", call, func() error {
		if err := e.require(call, ActionGovern); err != nil {
			return err
		}
		if err := e.voter.Kill(gauge); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "GaugeKilled", Gauge: gauge})
		return nil
	})
}

func (e *Escrow) ReviveGauge(call Call, gauge thor.Address) error {
	return e.mutate("revive_gauge", call, func() error {
		if err := e.require(call, ActionGovern); err != nil {
			return err
		}
		if err := e.voter.Revive(gauge); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "GaugeRevived", Gauge: gauge})
		return nil
	})
}

// WhitelistToken allows or disallows token as an external bribe.
func (e *Escrow) WhitelistToken(call Call, token thor.Address, allowed bool) error {
	return e.mutate("whitelist_token", call, func() error {
		if err := e.require(call, ActionGovern); err != nil {
			return err
		}
		return e.voter.Whitelist(token, allowed)
	})
}

func (e *Escrow) SetVotingPaused(call Call, paused bool) error {
	return e.mutate("set_voting_paused", call, func() error {
		if err := e.require(call, ActionGovern); err != nil {
			return err
		}
		return e.voter.SetPaused(paused)
	})
}

// NotifyEmissions pulls amount of the governance token from the caller and splits it
// across gauges by the weights of the running epoch.
func (e *Escrow) NotifyEmissions(call Call, amount *big.Int) error {
	return e.mutate("notify_emissions", call, func() error {
		if err := e.require(call, ActionEmissionSource); err != nil {
			return err
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrZeroAmount
		}
		if err := e.custody.Transfer(e.params.Token, call.Caller, thor.VoterNamespace, amount); err != nil {
			return err
		}
		shares, err := e.voter.NotifyEmissions(amount, call.Time)
		if err != nil {
			return err
		}
		for gauge, share := range shares {
			e.emit(call, &logdb.Event{Name: "DistributeEmissions", Gauge: gauge, Token: e.params.Token, Amount: share})
		}
		return nil
	})
}

func (e *Escrow) Gauges() ([]thor.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.Gauges()
}

func (e *Escrow) Gauge(gauge thor.Address) (*voter.Gauge, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.GetGauge(gauge)
}

func (e *Escrow) IsWhitelisted(token thor.Address) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.IsWhitelisted(token)
}

func (e *Escrow) VotingPaused() (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.Paused()
}

// GaugeWeightAt returns the votes a gauge received for the epoch of t.
func (e *Escrow) GaugeWeightAt(gauge thor.Address, t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.GaugeWeightAt(gauge, t)
}

// TotalWeightAt returns the votes of all gauges for the epoch of t.
func (e *Escrow) TotalWeightAt(t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.TotalWeightAt(t)
}

// Claimable returns the emissions credited to a gauge.
func (e *Escrow) Claimable(gauge thor.Address) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.voter.Claimable(gauge)
}
