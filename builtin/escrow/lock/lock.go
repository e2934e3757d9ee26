// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lock

import (
	"math/big"

	"github.com/vechain/vevote/builtin/escrow/checkpoint"
	"github.com/vechain/vevote/thor"
)

// Kind tags the state of a lock.
type Kind uint8

const (
	KindNone Kind = iota
	KindDecaying
	KindPermanent
	KindAttached
	KindManaged
	KindBurned
)

func (k Kind) String() string {
	switch k {
	case KindDecaying:
		return "decaying"
	case KindPermanent:
		return "permanent"
	case KindAttached:
		return "attached"
	case KindManaged:
		return "managed"
	case KindBurned:
		return "burned"
	default:
		return "none"
	}
}

// Lock is a voting position. Amount is the principal, for managed locks the attached weight.
// UnlockTime is set for decaying locks only, the Attachment for attached locks only.
type Lock struct {
	Owner      thor.Address
	Approved   thor.Address
	Amount     *big.Int
	Kind       Kind
	UnlockTime uint64
	Attachment *Attachment `rlp:"nil"`
	CreatedAt  uint64
}

// Attachment records what an attached lock contributes to its managed lock.
type Attachment struct {
	ManagedID    uint64
	Weight       *big.Int
	WasPermanent bool
}

func (l *Lock) Exists() bool {
	return l != nil && l.Kind != KindNone && l.Kind != KindBurned
}

// IsPermanent reports whether the lock power is constant, managed locks are always permanent.
func (l *Lock) IsPermanent() bool {
	return l.Kind == KindPermanent || l.Kind == KindManaged
}

func (l *Lock) IsAttached() bool {
	return l.Kind == KindAttached
}

func (l *Lock) IsManaged() bool {
	return l.Kind == KindManaged
}

// IsExpired reports whether a decaying lock reached its unlock time.
func (l *Lock) IsExpired(now uint64) bool {
	return l.Kind == KindDecaying && l.UnlockTime <= now
}

// IsTransferable reports whether ownership may change hands.
func (l *Lock) IsTransferable() bool {
	return l.Kind == KindDecaying || l.Kind == KindPermanent
}

// IsApprovedOrOwner reports whether spender may operate the lock.
func (l *Lock) IsApprovedOrOwner(spender thor.Address) bool {
	return l.Owner == spender || (!l.Approved.IsZero() && l.Approved == spender)
}

// Locked returns the balance driving the lock's checkpoints.
func (l *Lock) Locked() checkpoint.LockedBalance {
	switch l.Kind {
	case KindDecaying:
		return checkpoint.LockedBalance{Amount: new(big.Int).Set(l.Amount), End: l.UnlockTime}
	case KindPermanent, KindManaged:
		return checkpoint.LockedBalance{Amount: new(big.Int).Set(l.Amount), Permanent: true}
	default:
		return checkpoint.Empty()
	}
}

// Copy returns a deep copy of the lock.
func (l *Lock) Copy() *Lock {
	c := *l
	c.Amount = new(big.Int).Set(l.Amount)
	if l.Attachment != nil {
		a := *l.Attachment
		a.Weight = new(big.Int).Set(l.Attachment.Weight)
		c.Attachment = &a
	}
	return &c
}
