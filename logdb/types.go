// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math/big"

	"github.com/vechain/vevote/thor"
)

// Event is one ledger mutation record. Fields that do not apply are zero.
type Event struct {
	BatchNumber uint32
	Index       uint32
	Time        uint64
	Name        string
	LockID      uint64
	Account     thor.Address
	Gauge       thor.Address
	Token       thor.Address
	Amount      *big.Int
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds event time, To is ignored when below From.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-nil field.
type EventCriteria struct {
	Name    *string
	LockID  *uint64
	Account *thor.Address
	Gauge   *thor.Address
}

// EventFilter matches events satisfying any of the criteria.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
