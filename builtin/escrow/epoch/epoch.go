// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch derives the fixed width time buckets votes and rewards are settled in.
//
// An epoch e is Open while now < e+width, votes cast during it land in e+width.
// Once now >= e+width the epoch is settled and its snapshots are immutable.
package epoch

import (
	"iter"

	"github.com/vechain/vevote/thor"
)

// Schedule maps timestamps to epochs of a fixed width.
type Schedule struct {
	width uint64
}

func NewSchedule(width uint64) Schedule {
	if width == 0 {
		panic("epoch: zero width")
	}
	return Schedule{width: width}
}

func (s Schedule) Width() uint64 {
	return s.width
}

// Start returns the epoch t belongs to.
func (s Schedule) Start(t uint64) uint64 {
	return thor.EpochStart(t, s.width)
}

// Next returns the epoch following the one t belongs to.
func (s Schedule) Next(t uint64) uint64 {
	return s.Start(t) + s.width
}

// Align floors an unlock time to an epoch boundary.
func (s Schedule) Align(t uint64) uint64 {
	return s.Start(t)
}

// Settled reports whether epoch has fully elapsed at now.
func (s Schedule) Settled(epoch, now uint64) bool {
	return epoch+s.width <= now
}

// LastSettled returns the most recent settled epoch at now.
func (s Schedule) LastSettled(now uint64) (uint64, bool) {
	current := s.Start(now)
	if current < s.width {
		return 0, false
	}
	return current - s.width, true
}

// Settle yields the settled epochs in [from, now) in order, from is aligned first.
func (s Schedule) Settle(from, now uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for e := s.Start(from); s.Settled(e, now); e += s.width {
			if !yield(e) {
				return
			}
		}
	}
}
