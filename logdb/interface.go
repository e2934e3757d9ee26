// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
)

// Reader queries recorded ledger events.
type Reader interface {
	// FilterEvents filters events based on the given criteria.
	FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error)

	// NewestBatch returns the number of the last written batch, 0 if none.
	NewestBatch() (uint32, error)
}

// Writer records the events of one committed ledger mutation.
type Writer interface {
	// Write stores events as one batch, indexes are assigned in order.
	Write(events []*Event) error
}
