// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package managed delegates the voting power of ordinary locks into permanent managed locks.
//
// A managed lock holds no principal. Its Amount is the sum of the weights attached to it and
// it votes with that amount as permanent power. The principal of an attached lock stays
// escrowed under its own id, which reports a zero balance until detached.
package managed

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/checkpoint"
	"github.com/vechain/vevote/builtin/escrow/epoch"
	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/thor"
)

type Service struct {
	locks       *lock.Service
	points      *checkpoint.Service
	schedule    epoch.Schedule
	maxLockTime uint64
}

func New(locks *lock.Service, points *checkpoint.Service, schedule epoch.Schedule, maxLockTime uint64) *Service {
	return &Service{
		locks:       locks,
		points:      points,
		schedule:    schedule,
		maxLockTime: maxLockTime,
	}
}

// Create registers an empty managed lock for owner.
func (s *Service) Create(owner thor.Address, now uint64) (uint64, error) {
	return s.locks.Create(&lock.Lock{
		Owner:     owner,
		Amount:    new(big.Int),
		Kind:      lock.KindManaged,
		CreatedAt: now,
	})
}

// Managed returns the managed lock, failing with ErrNotManaged for any other id.
func (s *Service) Managed(id uint64) (*lock.Lock, error) {
	m, err := s.locks.Get(id)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsManaged() {
		return nil, errors.WithMessagef(reverts.ErrNotManaged, "lock %d", id)
	}
	return m, nil
}

// Attach moves the current power of lock id into managedID and returns the weight moved.
// The caller is expected to have cleared the votes of id.
func (s *Service) Attach(id, managedID uint64, now uint64) (*big.Int, error) {
	if id == managedID {
		return nil, errors.WithMessagef(reverts.ErrSameLock, "lock %d", id)
	}
	src, err := s.locks.GetExisting(id)
	if err != nil {
		return nil, err
	}
	m, err := s.Managed(managedID)
	if err != nil {
		return nil, err
	}
	switch src.Kind {
	case lock.KindDecaying:
		if src.IsExpired(now) {
			return nil, errors.WithMessagef(reverts.ErrLockExpired, "lock %d", id)
		}
	case lock.KindPermanent:
	default:
		return nil, errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is %v", id, src.Kind)
	}

	weight, err := s.points.BalanceOfAt(id, now)
	if err != nil {
		return nil, err
	}
	if weight.Sign() == 0 {
		return nil, errors.WithMessagef(reverts.ErrZeroAmount, "lock %d has no power", id)
	}

	if err := s.points.Checkpoint(id, src.Locked(), checkpoint.Empty(), now); err != nil {
		return nil, err
	}
	src.Attachment = &lock.Attachment{
		ManagedID:    managedID,
		Weight:       new(big.Int).Set(weight),
		WasPermanent: src.Kind == lock.KindPermanent,
	}
	src.Kind = lock.KindAttached
	src.UnlockTime = 0
	src.Approved = thor.Address{}
	if err := s.locks.Set(id, src); err != nil {
		return nil, err
	}

	prev := m.Locked()
	m.Amount.Add(m.Amount, weight)
	if err := s.points.Checkpoint(managedID, prev, m.Locked(), now); err != nil {
		return nil, err
	}
	if err := s.locks.Set(managedID, m); err != nil {
		return nil, err
	}
	return weight, nil
}

// Detach returns lock id to its owner as a permanent lock if it was one, otherwise as a
// decaying lock of maximum duration. It returns the managed id and the weight removed from it.
func (s *Service) Detach(id uint64, now uint64) (uint64, *big.Int, error) {
	src, err := s.locks.GetExisting(id)
	if err != nil {
		return 0, nil, err
	}
	if !src.IsAttached() || src.Attachment == nil {
		return 0, nil, errors.WithMessagef(reverts.ErrAccessDenied, "lock %d is not attached", id)
	}
	att := src.Attachment

	m, err := s.Managed(att.ManagedID)
	if err != nil {
		return 0, nil, err
	}
	prev := m.Locked()
	m.Amount.Sub(m.Amount, att.Weight)
	if m.Amount.Sign() < 0 {
		m.Amount.SetUint64(0)
	}
	if err := s.points.Checkpoint(att.ManagedID, prev, m.Locked(), now); err != nil {
		return 0, nil, err
	}
	if err := s.locks.Set(att.ManagedID, m); err != nil {
		return 0, nil, err
	}

	if att.WasPermanent {
		src.Kind = lock.KindPermanent
	} else {
		src.Kind = lock.KindDecaying
		src.UnlockTime = s.schedule.Align(now + s.maxLockTime)
	}
	src.Attachment = nil
	if err := s.points.Checkpoint(id, checkpoint.Empty(), src.Locked(), now); err != nil {
		return 0, nil, err
	}
	if err := s.locks.Set(id, src); err != nil {
		return 0, nil, err
	}
	return att.ManagedID, att.Weight, nil
}
