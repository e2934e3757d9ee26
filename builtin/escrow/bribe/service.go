// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bribe

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/epoch"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/thor"
)

var (
	slotBalances      = thor.NameToSlot("balances")
	slotSupplies      = thor.NameToSlot("supplies")
	slotFirstEpochs   = thor.NameToSlot("first-epochs")
	slotRewards       = thor.NameToSlot("rewards")
	slotFreezeCursors = thor.NameToSlot("freeze-cursors")
	slotClaimCursors  = thor.NameToSlot("claim-cursors")
	slotRewardTokens  = thor.NameToSlot("reward-tokens")
	slotIsReward      = thor.NameToSlot("is-reward")
)

// Service accrues rewards per gauge, distributor, token and epoch, and pays them
// to locks in proportion to the votes they deposited for each epoch.
//
// Epochs are frozen lazily and in order: freezing settles the reward per token of an
// epoch, or carries its rewards to the next epoch when nobody voted for it.
type Service struct {
	balances      *solidity.Mapping[lockEpochKey, *big.Int]
	supplies      *solidity.Mapping[gaugeEpochKey, *big.Int]
	firstEpochs   *solidity.Mapping[gaugeLockKey, *cursor]
	rewards       *solidity.Mapping[rewardKey, *EpochState]
	freezeCursors *solidity.Mapping[tokenKey, *cursor]
	claimCursors  *solidity.Mapping[claimKey, *cursor]
	rewardTokens  *solidity.ArrayMapping[distributorKey, thor.Address]
	isReward      *solidity.Mapping[tokenKey, bool]

	schedule epoch.Schedule
}

func New(sctx *solidity.Context, schedule epoch.Schedule) *Service {
	return &Service{
		balances:      solidity.NewMapping[lockEpochKey, *big.Int](sctx, slotBalances),
		supplies:      solidity.NewMapping[gaugeEpochKey, *big.Int](sctx, slotSupplies),
		firstEpochs:   solidity.NewMapping[gaugeLockKey, *cursor](sctx, slotFirstEpochs),
		rewards:       solidity.NewMapping[rewardKey, *EpochState](sctx, slotRewards),
		freezeCursors: solidity.NewMapping[tokenKey, *cursor](sctx, slotFreezeCursors),
		claimCursors:  solidity.NewMapping[claimKey, *cursor](sctx, slotClaimCursors),
		rewardTokens:  solidity.NewArrayMapping[distributorKey, thor.Address](sctx, slotRewardTokens),
		isReward:      solidity.NewMapping[tokenKey, bool](sctx, slotIsReward),
		schedule:      schedule,
	}
}

//
// Deposits
//

// Deposit credits votes of a lock to a gauge for epoch e.
func (s *Service) Deposit(gauge thor.Address, id uint64, e uint64, amount *big.Int) error {
	e = s.schedule.Start(e)
	balance, err := s.BalanceOfAt(gauge, id, e)
	if err != nil {
		return err
	}
	if err := s.balances.Set(lockEpochKey{gauge, id, e}, balance.Add(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	supply, err := s.TotalSupplyAt(gauge, e)
	if err != nil {
		return err
	}
	if err := s.supplies.Set(gaugeEpochKey{gauge, e}, supply.Add(supply, amount)); err != nil {
		return errors.Wrap(err, "failed to set supply")
	}

	first, err := s.firstEpochs.Get(gaugeLockKey{gauge, id})
	if err != nil {
		return err
	}
	if first == nil || e < first.Epoch {
		return s.firstEpochs.Set(gaugeLockKey{gauge, id}, &cursor{Epoch: e})
	}
	return nil
}

// Withdraw removes votes of a lock from a gauge for epoch e.
func (s *Service) Withdraw(gauge thor.Address, id uint64, e uint64, amount *big.Int) error {
	e = s.schedule.Start(e)
	balance, err := s.BalanceOfAt(gauge, id, e)
	if err != nil {
		return err
	}
	supply, err := s.TotalSupplyAt(gauge, e)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 || supply.Cmp(amount) < 0 {
		return errors.Errorf("withdraw %v exceeds balance %v of lock %d", amount, balance, id)
	}
	if err := s.balances.Set(lockEpochKey{gauge, id, e}, balance.Sub(balance, amount)); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return s.supplies.Set(gaugeEpochKey{gauge, e}, supply.Sub(supply, amount))
}

// BalanceOfAt returns the votes of a lock deposited to a gauge for epoch e.
func (s *Service) BalanceOfAt(gauge thor.Address, id uint64, e uint64) (*big.Int, error) {
	b, err := s.balances.Get(lockEpochKey{gauge, id, s.schedule.Start(e)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if b == nil {
		return new(big.Int), nil
	}
	return b, nil
}

// TotalSupplyAt returns the votes deposited to a gauge for epoch e.
func (s *Service) TotalSupplyAt(gauge thor.Address, e uint64) (*big.Int, error) {
	v, err := s.supplies.Get(gaugeEpochKey{gauge, s.schedule.Start(e)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get supply")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

//
// Rewards
//

// RewardTokens lists the tokens ever notified to a distributor.
func (s *Service) RewardTokens(gauge thor.Address, kind Kind) ([]thor.Address, error) {
	arr := s.rewardTokens.Of(distributorKey{gauge, kind})
	n, err := arr.Len()
	if err != nil {
		return nil, err
	}
	tokens := make([]thor.Address, 0, n)
	for i := range n {
		token, err := arr.At(i)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *Service) epochState(key rewardKey) (*EpochState, error) {
	st, err := s.rewards.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get epoch state")
	}
	if st == nil {
		return newEpochState(), nil
	}
	return st, nil
}

// Notify adds amount to the bucket of the running epoch.
func (s *Service) Notify(gauge thor.Address, kind Kind, token thor.Address, amount *big.Int, now uint64) error {
	if amount.Sign() <= 0 {
		return errors.WithMessagef(reverts.ErrZeroAmount, "notify %v", token)
	}
	tk := tokenKey{gauge, kind, token}
	if err := s.freeze(tk, now); err != nil {
		return err
	}

	registered, err := s.isReward.Get(tk)
	if err != nil {
		return err
	}
	if !registered {
		if _, err := s.rewardTokens.Of(distributorKey{gauge, kind}).Push(token); err != nil {
			return errors.Wrap(err, "failed to register reward token")
		}
		if err := s.isReward.Set(tk, true); err != nil {
			return err
		}
	}

	e := s.schedule.Start(now)
	key := rewardKey{tk, e}
	st, err := s.epochState(key)
	if err != nil {
		return err
	}
	st.Notified.Add(st.Notified, amount)
	if err := s.rewards.Set(key, st); err != nil {
		return errors.Wrap(err, "failed to set epoch state")
	}

	fc, err := s.freezeCursors.Get(tk)
	if err != nil {
		return err
	}
	if fc == nil {
		return s.freezeCursors.Set(tk, &cursor{Epoch: e})
	}
	return nil
}

// settled is the outcome of one settled epoch.
type settled struct {
	epoch  uint64
	state  *EpochState // as stored, nil when frozen already
	paid   *big.Int    // rewards shared by voters
	supply *big.Int
}

// walk visits the settled epochs of a token from the freeze cursor on, computing
// carries of epochs not frozen yet without writing them. It returns the amount
// carried into the first unsettled epoch.
func (s *Service) walk(tk tokenKey, now uint64, fn func(settled) error) (*big.Int, error) {
	fc, err := s.freezeCursors.Get(tk)
	if err != nil {
		return nil, err
	}
	carry := new(big.Int)
	if fc == nil {
		return carry, nil
	}
	for e := range s.schedule.Settle(fc.Epoch, now) {
		st, err := s.epochState(rewardKey{tk, e})
		if err != nil {
			return nil, err
		}
		supply, err := s.TotalSupplyAt(tk.gauge, e)
		if err != nil {
			return nil, err
		}
		st.Carried.Add(st.Carried, carry)
		total := st.total()
		paid := new(big.Int)
		if supply.Sign() == 0 {
			carry = total
		} else {
			carry = new(big.Int)
			paid = total
		}
		if err := fn(settled{epoch: e, state: st, paid: paid, supply: supply}); err != nil {
			return nil, err
		}
	}
	return carry, nil
}

// freeze persists the settlement of every epoch elapsed since the freeze cursor.
func (s *Service) freeze(tk tokenKey, now uint64) error {
	var last *uint64
	carry, err := s.walk(tk, now, func(st settled) error {
		e := st.epoch
		last = &e
		if st.paid.Sign() > 0 {
			rpt, err := thor.MulDiv(st.paid, thor.Precision, st.supply)
			if err != nil {
				return err
			}
			st.state.RewardPerToken = rpt
		}
		st.state.Frozen = true
		if st.state.total().Sign() == 0 {
			return nil
		}
		return s.rewards.Set(rewardKey{tk, e}, st.state)
	})
	if err != nil || last == nil {
		return err
	}
	next := *last + s.schedule.Width()
	if carry.Sign() > 0 {
		key := rewardKey{tk, next}
		st, err := s.epochState(key)
		if err != nil {
			return err
		}
		st.Carried.Add(st.Carried, carry)
		if err := s.rewards.Set(key, st); err != nil {
			return err
		}
	}
	return s.freezeCursors.Set(tk, &cursor{Epoch: next})
}

// claimStart returns the first epoch not yet claimed by a lock, ok is false when the
// lock never voted for the gauge.
func (s *Service) claimStart(ck claimKey) (uint64, bool, error) {
	c, err := s.claimCursors.Get(ck)
	if err != nil {
		return 0, false, err
	}
	if c != nil {
		return c.Epoch, true, nil
	}
	first, err := s.firstEpochs.Get(gaugeLockKey{ck.gauge, ck.id})
	if err != nil {
		return 0, false, err
	}
	if first == nil {
		return 0, false, nil
	}
	return first.Epoch, true, nil
}

// Earned returns the rewards of a lock over settled epochs since its claim cursor.
// Each epoch pays floor(balance * rewards / supply).
func (s *Service) Earned(gauge thor.Address, kind Kind, id uint64, token thor.Address, now uint64) (*big.Int, error) {
	ck := claimKey{tokenKey{gauge, kind, token}, id}
	from, ok, err := s.claimStart(ck)
	earned := new(big.Int)
	if err != nil || !ok {
		return earned, err
	}

	// frozen epochs before the freeze cursor
	fc, err := s.freezeCursors.Get(ck.tokenKey)
	if err != nil || fc == nil {
		return earned, err
	}
	for e := range s.schedule.Settle(from, now) {
		if e >= fc.Epoch {
			break
		}
		supply, err := s.TotalSupplyAt(gauge, e)
		if err != nil {
			return nil, err
		}
		if supply.Sign() == 0 {
			continue
		}
		st, err := s.epochState(rewardKey{ck.tokenKey, e})
		if err != nil {
			return nil, err
		}
		if err := s.accrue(earned, gauge, id, e, st.total(), supply); err != nil {
			return nil, err
		}
	}

	_, err = s.walk(ck.tokenKey, now, func(st settled) error {
		if st.epoch < from || st.paid.Sign() == 0 {
			return nil
		}
		return s.accrue(earned, gauge, id, st.epoch, st.paid, st.supply)
	})
	if err != nil {
		return nil, err
	}
	return earned, nil
}

func (s *Service) accrue(earned *big.Int, gauge thor.Address, id uint64, e uint64, paid, supply *big.Int) error {
	balance, err := s.BalanceOfAt(gauge, id, e)
	if err != nil || balance.Sign() == 0 {
		return err
	}
	amount, err := thor.MulDiv(balance, paid, supply)
	if err != nil {
		return err
	}
	earned.Add(earned, amount)
	return nil
}

// Claim settles the rewards of a lock for the given tokens and advances its cursors.
// It fails with ErrNothingToClaim when all tokens earned zero.
func (s *Service) Claim(gauge thor.Address, kind Kind, id uint64, tokens []thor.Address, now uint64) ([]*big.Int, error) {
	amounts := make([]*big.Int, len(tokens))
	claimed := false
	for i, token := range tokens {
		ck := claimKey{tokenKey{gauge, kind, token}, id}
		if err := s.freeze(ck.tokenKey, now); err != nil {
			return nil, err
		}
		earned, err := s.Earned(gauge, kind, id, token, now)
		if err != nil {
			return nil, err
		}
		amounts[i] = earned
		if earned.Sign() == 0 {
			continue
		}
		claimed = true

		from, _, err := s.claimStart(ck)
		if err != nil {
			return nil, err
		}
		next := max(from, s.schedule.Start(now))
		if err := s.claimCursors.Set(ck, &cursor{Epoch: next}); err != nil {
			return nil, err
		}
	}
	if !claimed {
		return nil, errors.WithMessagef(reverts.ErrNothingToClaim, "lock %d, gauge %v", id, gauge)
	}
	return amounts, nil
}

// ClaimCursor returns the first epoch a lock has not claimed for a token.
func (s *Service) ClaimCursor(gauge thor.Address, kind Kind, id uint64, token thor.Address) (uint64, bool, error) {
	return s.claimStart(claimKey{tokenKey{gauge, kind, token}, id})
}

// Epoch returns the read model of epoch e for a token, with pending carries applied.
func (s *Service) Epoch(gauge thor.Address, kind Kind, token thor.Address, e uint64, now uint64) (*EpochInfo, error) {
	e = s.schedule.Start(e)
	tk := tokenKey{gauge, kind, token}
	supply, err := s.TotalSupplyAt(gauge, e)
	if err != nil {
		return nil, err
	}
	st, err := s.epochState(rewardKey{tk, e})
	if err != nil {
		return nil, err
	}
	info := &EpochInfo{
		Epoch:          e,
		Notified:       st.Notified,
		Carried:        st.Carried,
		Paid:           new(big.Int),
		TotalSupply:    supply,
		RewardPerToken: st.RewardPerToken,
		Settled:        s.schedule.Settled(e, now),
	}

	found := false
	carry, err := s.walk(tk, now, func(w settled) error {
		if w.epoch == e {
			found = true
			info.Carried = w.state.Carried
			info.Paid = w.paid
			if w.paid.Sign() > 0 {
				rpt, err := thor.MulDiv(w.paid, thor.Precision, w.supply)
				if err != nil {
					return err
				}
				info.RewardPerToken = rpt
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	switch {
	case found:
	case info.Settled:
		// frozen already
		if supply.Sign() > 0 {
			info.Paid = st.total()
		}
	default:
		if e == s.schedule.Start(now) {
			info.Carried = new(big.Int).Add(st.Carried, carry)
		}
		if supply.Sign() > 0 {
			total := new(big.Int).Add(st.Notified, info.Carried)
			rpt, err := thor.MulDiv(total, thor.Precision, supply)
			if err != nil {
				return nil, err
			}
			info.RewardPerToken = rpt
		}
	}
	return info, nil
}

// RewardPerToken returns the reward per unit of votes of epoch e, scaled by thor.Precision.
func (s *Service) RewardPerToken(gauge thor.Address, kind Kind, token thor.Address, e uint64, now uint64) (*big.Int, error) {
	info, err := s.Epoch(gauge, kind, token, e, now)
	if err != nil {
		return nil, err
	}
	return info.RewardPerToken, nil
}
