// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package escrow

import (
	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

// CreateManagedLock registers an empty managed lock owned by owner.
func (e *Escrow) CreateManagedLock(call Call, owner thor.Address) (id uint64, err error) {
	err = e.mutate("create_managed_lock", call, func() error {
		if err := e.require(call, ActionManagedCreator); err != nil {
			return err
		}
		if owner.IsZero() {
			return errors.WithMessage(reverts.ErrAccessDenied, "managed lock for zero address")
		}
		id, err = e.managed.Create(owner, call.Time)
		if err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "CreateManaged", LockID: id, Account: owner})
		return nil
	})
	return id, err
}

// AttachToManagedNFT delegates the power of lock id to managedID. The votes of id are
// cleared and those of the managed lock follow its new power.
func (e *Escrow) AttachToManagedNFT(call Call, id, managedID uint64) error {
	return e.mutate("attach", call, func() error {
		if err := e.checkVotingOpen(); err != nil {
			return err
		}
		if _, err := e.authorized(call, id); err != nil {
			return err
		}
		if _, err := e.managed.Managed(managedID); err != nil {
			return errors.WithMessagef(reverts.ErrAccessDenied, "%v", err)
		}
		if err := e.reset(call, id); err != nil {
			return err
		}
		weight, err := e.managed.Attach(id, managedID, call.Time)
		if err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Attach", LockID: id, Amount: weight})
		return e.repokeManaged(call, managedID)
	})
}

// DettachFromManagedNFT returns lock id to its owner with its own power restored.
func (e *Escrow) DettachFromManagedNFT(call Call, id uint64) error {
	return e.mutate("detach", call, func() error {
		if err := e.checkVotingOpen(); err != nil {
			return err
		}
		if _, err := e.authorized(call, id); err != nil {
			return err
		}
		managedID, weight, err := e.managed.Detach(id, call.Time)
		if err != nil {
			return err
		}
		e.emit(call, &logdb.Event{Name: "Detach", LockID: id, Amount: weight})
		return e.repokeManaged(call, managedID)
	})
}

// repokeManaged refreshes the votes of a managed lock whose power changed.
func (e *Escrow) repokeManaged(call Call, managedID uint64) error {
	voted, err := e.voter.HasVotes(managedID)
	if err != nil || !voted {
		return err
	}
	return e.poke(call, managedID)
}
