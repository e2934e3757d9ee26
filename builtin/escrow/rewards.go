// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"context"
	"errors"
	"math/big"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/vevote/builtin/escrow/bribe"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

// earnedConcurrency bounds the goroutines of one EarnedAll call.
const earnedConcurrency = 8

// NotifyReward pulls amount of token from the caller into the running epoch of a gauge distributor.
// External bribes accept whitelisted tokens from anyone, internal fees only come from fee sources.
func (e *Escrow) NotifyReward(call Call, gauge thor.Address, kind bribe.Kind, token thor.Address, amount *big.Int) error {
	return e.mutate("notify_reward", call, func() error {
		g, err := e.voter.GetGauge(gauge)
		if err != nil {
			return err
		}
		if g == nil {
			return pkgerrors.WithMessagef(reverts.ErrGaugeNotAlive, "unknown gauge %v", gauge)
		}
		switch kind {
		case bribe.External:
			ok, err := e.voter.IsWhitelisted(token)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.WithMessagef(reverts.ErrTokenNotWhitelisted, "token %v", token)
			}
		case bribe.Internal:
			if err := e.require(call, ActionFeeSource); err != nil {
				return err
			}
		default:
			return pkgerrors.Errorf("unknown distributor %d", kind)
		}
		if amount == nil || amount.Sign() <= 0 {
			return reverts.ErrZeroAmount
		}
		if err := e.custody.Transfer(token, call.Caller, thor.BribeNamespace, amount); err != nil {
			return err
		}
		if err := e.bribes.Notify(gauge, kind, token, amount, call.Time); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "NotifyReward", Gauge: gauge, Token: token, Amount: new(big.Int).Set(amount)})
		return nil
	})
}

// Earned returns the rewards of token a lock can claim from a gauge distributor.
func (e *Escrow) Earned(gauge thor.Address, kind bribe.Kind, id uint64, token thor.Address) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.Earned(gauge, kind, id, token, e.now())
}

// EarnedAll returns the rewards of every token, in order.
func (e *Escrow) EarnedAll(ctx context.Context, gauge thor.Address, kind bribe.Kind, id uint64, tokens []thor.Address) ([]*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	now := e.now()

	earned := make([]*big.Int, len(tokens))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(earnedConcurrency)
	for i, token := range tokens {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			amount, err := e.bribes.Earned(gauge, kind, id, token, now)
			if err != nil {
				return err
			}
			earned[i] = amount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return earned, nil
}

// Claim pays out the rewards of a lock from one gauge distributor to the lock owner.
func (e *Escrow) Claim(call Call, gauge thor.Address, kind bribe.Kind, id uint64, tokens []thor.Address) (amounts []*big.Int, err error) {
	err = e.mutate("claim", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		amounts, err = e.claim(call, gauge, kind, id, l.Owner, tokens)
		return err
	})
	return amounts, err
}

func (e *Escrow) claim(call Call, gauge thor.Address, kind bribe.Kind, id uint64, owner thor.Address, tokens []thor.Address) ([]*big.Int, error) {
	amounts, err := e.bribes.Claim(gauge, kind, id, tokens, call.Time)
	if err != nil {
		return nil, err
	}
	for i, token := range tokens {
		if amounts[i].Sign() == 0 {
			continue
		}
		if err := e.custody.Transfer(token, thor.BribeNamespace, owner, amounts[i]); err != nil {
			return nil, err
		}
		e.emit(call, &logdb.Event{Name: "ClaimRewards", LockID: id, Account: owner, Gauge: gauge, Token: token, Amount: amounts[i]})
	}
	metricClaimed().AddWithLabel(1, map[string]string{"kind": kind.String()})
	return amounts, nil
}

// ClaimBribes claims both distributors of every gauge, skipping those with nothing to claim.
func (e *Escrow) ClaimBribes(call Call, id uint64, gauges []thor.Address, tokens []thor.Address) error {
	return e.mutate("claim_bribes", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		for _, gauge := range gauges {
			for _, kind := range bribe.Kinds {
				if _, err := e.claim(call, gauge, kind, id, l.Owner, tokens); err != nil && !errors.Is(err, reverts.ErrNothingToClaim) {
					return err
				}
			}
		}
		return nil
	})
}

// TotalSupplyPerEpoch returns the votes deposited into a gauge for the epoch of t.
func (e *Escrow) TotalSupplyPerEpoch(gauge thor.Address, t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.TotalSupplyAt(gauge, t)
}

// GaugeBalanceOfAt returns the votes a lock deposited into a gauge for the epoch of t.
func (e *Escrow) GaugeBalanceOfAt(gauge thor.Address, id uint64, t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.BalanceOfAt(gauge, id, t)
}

// RewardPerToken returns the reward per unit of votes of the epoch of t, scaled by thor.Precision.
func (e *Escrow) RewardPerToken(gauge thor.Address, kind bribe.Kind, token thor.Address, t uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.RewardPerToken(gauge, kind, token, t, e.now())
}

// RewardEpoch returns the settlement view of one distributor epoch.
func (e *Escrow) RewardEpoch(gauge thor.Address, kind bribe.Kind, token thor.Address, t uint64) (*bribe.EpochInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.Epoch(gauge, kind, token, t, e.now())
}

// RewardTokens lists the tokens ever notified to a gauge distributor.
func (e *Escrow) RewardTokens(gauge thor.Address, kind bribe.Kind) ([]thor.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bribes.RewardTokens(gauge, kind)
}
