// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/logdb"
	"github.com/vechain/vevote/thor"
)

type Range struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventCriteria struct {
	Name    *string       `json:"name"`
	LockID  *uint64       `json:"lockId"`
	Account *thor.Address `json:"account"`
	Gauge   *thor.Address `json:"gauge"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type FilteredEvent struct {
	Name    string                   `json:"name"`
	Time    uint64                   `json:"time"`
	LockID  uint64                   `json:"lockId"`
	Account thor.Address             `json:"account"`
	Gauge   thor.Address             `json:"gauge"`
	Token   thor.Address             `json:"token"`
	Amount  *ethmath.HexOrDecimal256 `json:"amount"`
	Batch   uint32                   `json:"batch"`
	Index   uint32                   `json:"index"`
}

func convertFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{Order: ef.Order}
	if ef.Range != nil {
		f.Range = &logdb.Range{}
		if ef.Range.From != nil {
			f.Range.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			f.Range.To = *ef.Range.To
		} else {
			f.Range.To = math.MaxInt64
		}
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	for _, c := range ef.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Name:    c.Name,
			LockID:  c.LockID,
			Account: c.Account,
			Gauge:   c.Gauge,
		})
	}
	return f
}

func convertEvent(ev *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Name:    ev.Name,
		Time:    ev.Time,
		LockID:  ev.LockID,
		Account: ev.Account,
		Gauge:   ev.Gauge,
		Token:   ev.Token,
		Amount:  restutil.Amount(ev.Amount),
		Batch:   ev.BatchNumber,
		Index:   ev.Index,
	}
}
