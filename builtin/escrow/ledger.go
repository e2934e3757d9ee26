// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/checkpoint"
	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

// CreateLock locks amount of the caller for duration, boosted when eligible.
func (e *Escrow) CreateLock(call Call, amount *big.Int, duration uint64) (id uint64, err error) {
	err = e.mutate("create_lock", call, func() error {
		id, err = e.createLock(call, call.Caller, amount, duration, true)
		return err
	})
	return id, err
}

// CreateLockFor locks amount of the caller on behalf of to.
func (e *Escrow) CreateLockFor(call Call, to thor.Address, amount *big.Int, duration uint64) (id uint64, err error) {
	err = e.mutate("create_lock_for", call, func() error {
		id, err = e.createLock(call, to, amount, duration, true)
		return err
	})
	return id, err
}

// CreateLockWithoutBoost locks amount of the caller, never boosted.
func (e *Escrow) CreateLockWithoutBoost(call Call, amount *big.Int, duration uint64) (id uint64, err error) {
	err = e.mutate("create_lock_without_boost", call, func() error {
		id, err = e.createLock(call, call.Caller, amount, duration, false)
		return err
	})
	return id, err
}

// unlockTime validates a duration starting at now and returns the aligned unlock time.
func (e *Escrow) unlockTime(now, duration uint64) (uint64, error) {
	if duration > e.params.MaxLockTime {
		return 0, errors.WithMessagef(reverts.ErrInvalidDuration, "duration %d over max %d", duration, e.params.MaxLockTime)
	}
	end := e.schedule.Align(now + duration)
	if duration == 0 || end <= now {
		return 0, errors.WithMessagef(reverts.ErrInvalidDuration, "unlock %d not after %d", end, now)
	}
	return end, nil
}

func (e *Escrow) createLock(call Call, to thor.Address, amount *big.Int, duration uint64, withBoost bool) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, reverts.ErrZeroAmount
	}
	if to.IsZero() {
		return 0, errors.WithMessage(reverts.ErrAccessDenied, "lock for zero address")
	}
	end, err := e.unlockTime(call.Time, duration)
	if err != nil {
		return 0, err
	}
	if err := e.custody.Transfer(e.params.Token, call.Caller, thor.EscrowNamespace, amount); err != nil {
		return 0, err
	}

	l := &lock.Lock{
		Owner:      to,
		Amount:     new(big.Int).Set(amount),
		Kind:       lock.KindDecaying,
		UnlockTime: end,
		CreatedAt:  call.Time,
	}
	id, err := e.locks.Create(l)
	if err != nil {
		return 0, err
	}
	if err := e.points.Checkpoint(id, checkpoint.Empty(), l.Locked(), call.Time); err != nil {
		return 0, err
	}
	if err := e.locks.AddSupply(amount); err != nil {
		return 0, err
	}
	e.emit(call, &logdb.Event{Name: "Deposit", LockID: id, Account: to, Amount: new(big.Int).Set(amount)})

	if withBoost {
		if err := e.applyBoost(call, id, l, duration); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// applyBoost tops up a fresh lock from the reserve and pays the secondary tokens to its owner.
func (e *Escrow) applyBoost(call Call, id uint64, l *lock.Lock, duration uint64) error {
	res, err := e.boost.Compute(l.Amount, duration)
	if err != nil {
		return err
	}
	if res.IsZero() {
		return nil
	}
	reserve := e.params.BoostReserve
	if res.Amount.Sign() > 0 {
		if err := e.custody.Transfer(e.params.Token, reserve, thor.EscrowNamespace, res.Amount); err != nil {
			return err
		}
		prev := l.Locked()
		l.Amount.Add(l.Amount, res.Amount)
		if err := e.points.Checkpoint(id, prev, l.Locked(), call.Time); err != nil {
			return err
		}
		if err := e.locks.AddSupply(res.Amount); err != nil {
			return err
		}
		if err := e.locks.Set(id, l); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Boost", LockID: id, Account: l.Owner, Token: e.params.Token, Amount: res.Amount})
	}
	for _, p := range res.Secondary {
		if err := e.custody.Transfer(p.Token, reserve, l.Owner, p.Amount); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Boost", LockID: id, Account: l.Owner, Token: p.Token, Amount: p.Amount})
	}
	metricBoosted().Add(1)
	return nil
}

// IncreaseAmount adds principal of the caller to an owned or approved lock.
func (e *Escrow) IncreaseAmount(call Call, id uint64, extra *big.Int) error {
	return e.mutate("increase_amount", call, func() error {
		if _, err := e.authorized(call, id); err != nil {
			return err
		}
		return e.depositFor(call, id, extra)
	})
}

// DepositFor adds principal of the caller to any lock.
func (e *Escrow) DepositFor(call Call, id uint64, extra *big.Int) error {
	return e.mutate("deposit_for", call, func() error {
		return e.depositFor(call, id, extra)
	})
}

func (e *Escrow) depositFor(call Call, id uint64, extra *big.Int) error {
	if extra == nil || extra.Sign() <= 0 {
		return reverts.ErrZeroAmount
	}
	l, err := e.locks.GetExisting(id)
	if err != nil {
		return err
	}
	switch l.Kind {
	case lock.KindDecaying:
		if l.IsExpired(call.Time) {
			return errors.WithMessagef(reverts.ErrLockExpired, "lock %d", id)
		}
	case lock.KindPermanent:
	default:
		return errors.WithMessagef(reverts.ErrAccessDenied, "deposit into %v lock %d", l.Kind, id)
	}
	if err := e.custody.Transfer(e.params.Token, call.Caller, thor.EscrowNamespace, extra); err != nil {
		return err
	}
	prev := l.Locked()
	l.Amount.Add(l.Amount, extra)
	if err := e.points.Checkpoint(id, prev, l.Locked(), call.Time); err != nil {
		return err
	}
	if err := e.locks.AddSupply(extra); err != nil {
		return err
	}
	e.emit(call, &logdb.Event{Name: "Deposit", LockID: id, Amount: new(big.Int).Set(extra)})
	return e.locks.Set(id, l)
}

// IncreaseUnlockTime extends a decaying lock to now + duration.
func (e *Escrow) IncreaseUnlockTime(call Call, id uint64, duration uint64) error {
	return e.mutate("increase_unlock_time", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		switch l.Kind {
		case lock.KindDecaying:
		case lock.KindPermanent:
			return errors.WithMessagef(reverts.ErrAlreadyLocked, "lock %d is permanent", id)
		default:
			return errors.WithMessagef(reverts.ErrAccessDenied, "extend %v lock %d", l.Kind, id)
		}
		if l.IsExpired(call.Time) {
			return errors.WithMessagef(reverts.ErrLockExpired, "lock %d", id)
		}
		end, err := e.unlockTime(call.Time, duration)
		if err != nil {
			return err
		}
		if end <= l.UnlockTime {
			return errors.WithMessagef(reverts.ErrInvalidDuration, "unlock %d not after %d", end, l.UnlockTime)
		}
		prev := l.Locked()
		l.UnlockTime = end
		if err := e.points.Checkpoint(id, prev, l.Locked(), call.Time); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Deposit", LockID: id, Amount: new(big.Int)})
		return e.locks.Set(id, l)
	})
}

// Merge folds lock from into lock to. The result holds both principals and the later unlock time.
func (e *Escrow) Merge(call Call, from, to uint64) error {
	return e.mutate("merge", call, func() error {
		if from == to {
			return errors.WithMessagef(reverts.ErrSameLock, "lock %d", from)
		}
		src, err := e.authorized(call, from)
		if err != nil {
			return err
		}
		dst, err := e.authorized(call, to)
		if err != nil {
			return err
		}
		for _, l := range []*lock.Lock{src, dst} {
			if l.IsAttached() || l.IsManaged() {
				return errors.WithMessagef(reverts.ErrAccessDenied, "merge %v lock", l.Kind)
			}
		}
		voted, err := e.voter.HasVotes(from)
		if err != nil {
			return err
		}
		if voted {
			return errors.WithMessagef(reverts.ErrAlreadyVoted, "lock %d", from)
		}
		if src.IsPermanent() {
			return errors.WithMessagef(reverts.ErrAlreadyLocked, "lock %d is permanent", from)
		}
		if dst.IsExpired(call.Time) {
			return errors.WithMessagef(reverts.ErrLockExpired, "lock %d", to)
		}

		if err := e.points.Checkpoint(from, src.Locked(), checkpoint.Empty(), call.Time); err != nil {
			return err
		}
		moved := new(big.Int).Set(src.Amount)
		srcEnd := src.UnlockTime
		if err := e.locks.Burn(from, src); err != nil {
			return err
		}

		prev := dst.Locked()
		dst.Amount.Add(dst.Amount, moved)
		if dst.Kind == lock.KindDecaying {
			dst.UnlockTime = max(dst.UnlockTime, srcEnd)
		}
		if err := e.points.Checkpoint(to, prev, dst.Locked(), call.Time); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Merge", LockID: to, Amount: moved})
		return e.locks.Set(to, dst)
	})
}

// LockPermanent stops the decay of a lock.
func (e *Escrow) LockPermanent(call Call, id uint64) error {
	return e.mutate("lock_permanent", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		switch l.Kind {
		case lock.KindDecaying:
		case lock.KindPermanent:
			return errors.WithMessagef(reverts.ErrAlreadyLocked, "lock %d", id)
		default:
			return errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is %v", id, l.Kind)
		}
		if l.IsExpired(call.Time) {
			return errors.WithMessagef(reverts.ErrLockExpired, "lock %d", id)
		}
		prev := l.Locked()
		l.Kind = lock.KindPermanent
		l.UnlockTime = 0
		if err := e.points.Checkpoint(id, prev, l.Locked(), call.Time); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "LockPermanent", LockID: id, Amount: new(big.Int).Set(l.Amount)})
		return e.locks.Set(id, l)
	})
}

// UnlockPermanent turns a permanent lock back into a decaying lock of maximum duration.
func (e *Escrow) UnlockPermanent(call Call, id uint64) error {
	return e.mutate("unlock_permanent", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		switch l.Kind {
		case lock.KindPermanent:
		case lock.KindDecaying:
			return errors.WithMessagef(reverts.ErrNotPermanent, "lock %d", id)
		default:
			return errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is %v", id, l.Kind)
		}
		voted, err := e.voter.HasVotes(id)
		if err != nil {
			return err
		}
		if voted {
			return errors.WithMessagef(reverts.ErrAlreadyVoted, "lock %d", id)
		}
		prev := l.Locked()
		l.Kind = lock.KindDecaying
		l.UnlockTime = e.schedule.Align(call.Time + e.params.MaxLockTime)
		if err := e.points.Checkpoint(id, prev, l.Locked(), call.Time); err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "UnlockPermanent", LockID: id, Amount: new(big.Int).Set(l.Amount)})
		return e.locks.Set(id, l)
	})
}

// Withdraw returns the principal of an expired lock to its owner and burns the lock.
func (e *Escrow) Withdraw(call Call, id uint64) error {
	return e.mutate("withdraw", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		switch l.Kind {
		case lock.KindDecaying:
		case lock.KindPermanent:
			return errors.WithMessagef(reverts.ErrAlreadyLocked, "lock %d is permanent", id)
		default:
			return errors.WithMessagef(reverts.ErrAccessDenied, "withdraw %v lock %d", l.Kind, id)
		}
		if !l.IsExpired(call.Time) {
			return errors.WithMessagef(reverts.ErrLockNotExpired, "lock %d unlocks at %d", id, l.UnlockTime)
		}
		voted, err := e.voter.HasVotes(id)
		if err != nil {
			return err
		}
		if voted {
			return errors.WithMessagef(reverts.ErrAlreadyVoted, "lock %d", id)
		}
		return e.release(call, id, l, l.Owner, "Withdraw")
	})
}

// BurnToBribes destroys a lock on behalf of the bribe router and pays its principal to the router.
func (e *Escrow) BurnToBribes(call Call, id uint64) error {
	return e.mutate("burn_to_bribes", call, func() error {
		router := e.params.BribeRouter
		if router.IsZero() || call.Caller != router {
			return errors.WithMessagef(reverts.ErrAccessDenied, "%v is not the bribe router", call.Caller)
		}
		l, err := e.locks.GetExisting(id)
		if err != nil {
			return err
		}
		if l.Owner != call.Caller {
			return errors.WithMessagef(reverts.ErrAccessDenied, "%v does not own lock %d", call.Caller, id)
		}
		if l.IsAttached() || l.IsManaged() {
			return errors.WithMessagef(reverts.ErrAccessDenied, "burn %v lock %d", l.Kind, id)
		}
		if err := e.voter.Reset(id, call.Time); err != nil {
			return err
		}
		return e.release(call, id, l, call.Caller, "BurnToBribes")
	})
}

// release pays out the principal of a lock and burns it.
func (e *Escrow) release(call Call, id uint64, l *lock.Lock, to thor.Address, event string) error {
	amount := new(big.Int).Set(l.Amount)
	if err := e.points.Checkpoint(id, l.Locked(), checkpoint.Empty(), call.Time); err != nil {
		return err
	}
	if err := e.locks.SubSupply(amount); err != nil {
		return err
	}
	if err := e.custody.Transfer(e.params.Token, thor.EscrowNamespace, to, amount); err != nil {
		return err
	}
	if err := e.locks.Burn(id, l); err != nil {
		return err
	}
	e.emit(call, &logdb.Event{Name: event, LockID: id, Account: to, Amount: amount})
	return nil
}

// Approve lets spender operate a lock. Only the owner may approve, a zero spender clears it.
func (e *Escrow) Approve(call Call, id uint64, spender thor.Address) error {
	return e.mutate("approve", call, func() error {
		l, err := e.locks.GetExisting(id)
		if err != nil {
			return err
		}
		if l.Owner != call.Caller {
			return errors.WithMessagef(reverts.ErrAccessDenied, "%v does not own lock %d", call.Caller, id)
		}
		if l.IsAttached() {
			return errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is attached", id)
		}
		l.Approved = spender
		e.emit(call, &logdb.Event{Name: "Approval", LockID: id, Account: spender})
		return e.locks.Set(id, l)
	})
}

// Transfer hands a lock over to a new owner and clears its approval.
func (e *Escrow) Transfer(call Call, id uint64, to thor.Address) error {
	return e.mutate("transfer", call, func() error {
		l, err := e.authorized(call, id)
		if err != nil {
			return err
		}
		if !l.IsTransferable() {
			return errors.WithMessagef(reverts.ErrAccessDenied, "%v lock %d is not transferable", l.Kind, id)
		}
		if to.IsZero() {
			return errors.WithMessage(reverts.ErrAccessDenied, "transfer to zero address")
		}
		l.Owner = to
		l.Approved = thor.Address{}
		e.emit(call, &logdb.Event{Name: "Transfer", LockID: id, Account: to})
		return e.locks.Set(id, l)
	})
}

// Checkpoint advances the global history to the call time.
func (e *Escrow) Checkpoint(call Call) error {
	return e.mutate("checkpoint", call, func() error {
		return e.points.Checkpoint(0, checkpoint.Empty(), checkpoint.Empty(), call.Time)
	})
}
