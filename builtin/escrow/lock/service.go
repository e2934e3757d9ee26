// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lock

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/thor"
)

var (
	slotLocks       = thor.NameToSlot("locks")
	slotLockCounter = thor.NameToSlot("locks-counter")
	slotSupply      = thor.NameToSlot("supply")
)

// Service stores locks and the sum of principal held by the ledger.
type Service struct {
	locks   *solidity.Mapping[solidity.Uint64Key, *Lock]
	counter *solidity.Raw[uint64]
	supply  *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		locks:   solidity.NewMapping[solidity.Uint64Key, *Lock](sctx, slotLocks),
		counter: solidity.NewRaw[uint64](sctx, slotLockCounter),
		supply:  solidity.NewUint256(sctx, slotSupply),
	}
}

// Get returns the lock, nil if it never existed.
func (s *Service) Get(id uint64) (*Lock, error) {
	l, err := s.locks.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get lock")
	}
	return l, nil
}

// GetExisting returns a live lock, failing with ErrInvalidTokenID otherwise.
func (s *Service) GetExisting(id uint64) (*Lock, error) {
	l, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !l.Exists() {
		return nil, errors.WithMessagef(reverts.ErrInvalidTokenID, "lock %d", id)
	}
	return l, nil
}

// Count returns the number of ids ever assigned.
func (s *Service) Count() (uint64, error) {
	return s.counter.Get()
}

// Create stores a new lock and returns its id, ids start at 1.
func (s *Service) Create(l *Lock) (uint64, error) {
	id, err := s.counter.Get()
	if err != nil {
		return 0, err
	}
	id++
	if err := s.counter.Upsert(id); err != nil {
		return 0, err
	}
	if err := s.Set(id, l); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Service) Set(id uint64, l *Lock) error {
	if err := s.locks.Set(solidity.Uint64Key(id), l); err != nil {
		return errors.Wrap(err, "failed to set lock")
	}
	return nil
}

// Burn marks the lock as destroyed, the record is kept so the id is never reused.
func (s *Service) Burn(id uint64, l *Lock) error {
	l.Kind = KindBurned
	l.Amount = new(big.Int)
	l.UnlockTime = 0
	l.Approved = thor.Address{}
	l.Attachment = nil
	return s.Set(id, l)
}

// Supply returns the sum of principal held by the ledger.
func (s *Service) Supply() (*big.Int, error) {
	return s.supply.Get()
}

func (s *Service) AddSupply(amount *big.Int) error {
	return s.supply.Add(amount)
}

func (s *Service) SubSupply(amount *big.Int) error {
	return s.supply.Sub(amount)
}
