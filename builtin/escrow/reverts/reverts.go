// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is a user facing failure of a ledger operation.
// Operations failing with an ErrRevert leave no trace in state.
type ErrRevert struct {
	message string
	kind    *ErrRevert
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

// NewKindOf returns a revert that also matches kind.
func NewKindOf(kind *ErrRevert, message string) *ErrRevert {
	return &ErrRevert{
		message: message,
		kind:    kind,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Unwrap() error {
	if e.kind == nil {
		return nil
	}
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

var (
	ErrAccessDenied              = New("access denied")
	ErrInvalidTokenID            = New("invalid token id")
	ErrLockExpired               = New("lock expired")
	ErrLockNotExpired            = New("lock not expired")
	ErrAlreadyLocked             = New("already locked")
	ErrNotPermanent              = New("not permanent")
	ErrInvalidDuration           = New("invalid duration")
	ErrMismatchArrayLen          = New("mismatch array length")
	ErrZeroAmount                = New("zero amount")
	ErrNothingToClaim            = New("nothing to claim")
	ErrInsufficientReserve       = New("insufficient reserve")
	ErrAlreadyVoted              = New("already voted")
	ErrDisableDuringVotingPaused = NewKindOf(ErrAccessDenied, "disabled during voting paused")
	ErrGaugeNotAlive             = New("gauge not alive")
	ErrGaugeAlive                = New("gauge alive")
	ErrDuplicateGauge            = New("duplicate gauge")
	ErrTokenNotWhitelisted       = New("token not whitelisted")
	ErrInvalidTimestamp          = New("invalid timestamp")
	ErrSameLock                  = New("same lock")
	ErrNotManaged                = New("not a managed lock")
)
