// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package checkpoint

import (
	"math/big"
)

// Point is one voting power record of a lock or of the global ledger.
// Decaying power at t is max(0, Bias - Slope*(t-Timestamp)) and zero from End on;
// Permanent is constant. End is only set on points of decaying locks.
type Point struct {
	Bias      *big.Int
	Slope     *big.Int
	Timestamp uint64
	Permanent *big.Int
	End       uint64
}

func newPoint(ts uint64) Point {
	return Point{
		Bias:      new(big.Int),
		Slope:     new(big.Int),
		Timestamp: ts,
		Permanent: new(big.Int),
	}
}

// Copy returns a deep copy of the point.
func (p Point) Copy() Point {
	return Point{
		Bias:      new(big.Int).Set(p.Bias),
		Slope:     new(big.Int).Set(p.Slope),
		Timestamp: p.Timestamp,
		Permanent: new(big.Int).Set(p.Permanent),
		End:       p.End,
	}
}

// BalanceAt applies the decay formula forward to t. t must not precede the point.
func (p Point) BalanceAt(t uint64) *big.Int {
	if p.Permanent.Sign() > 0 {
		return new(big.Int).Set(p.Permanent)
	}
	if p.End != 0 && t >= p.End {
		return new(big.Int)
	}
	return decay(p.Bias, p.Slope, t-p.Timestamp)
}

// remainder is the bias left over when the slope alone runs until End.
// It drops out of the global supply at End together with the slope.
func (p Point) remainder() *big.Int {
	if p.End <= p.Timestamp {
		return new(big.Int)
	}
	return decay(p.Bias, p.Slope, p.End-p.Timestamp)
}

// PermanentPoint records the total permanently locked amount from Timestamp on.
type PermanentPoint struct {
	Timestamp uint64
	Amount    *big.Int
}

// LockedBalance is the part of a lock that drives its voting power.
// End is zero for permanent and empty locks.
type LockedBalance struct {
	Amount    *big.Int
	End       uint64
	Permanent bool
}

// Empty is the locked balance of a lock with no voting power.
func Empty() LockedBalance {
	return LockedBalance{Amount: new(big.Int)}
}

// decay returns max(0, bias - slope*elapsed).
func decay(bias, slope *big.Int, elapsed uint64) *big.Int {
	res := new(big.Int).Mul(slope, new(big.Int).SetUint64(elapsed))
	res.Sub(bias, res)
	if res.Sign() < 0 {
		res.SetUint64(0)
	}
	return res
}

// subClamp sets x to max(0, x-y).
func subClamp(x, y *big.Int) {
	x.Sub(x, y)
	if x.Sign() < 0 {
		x.SetUint64(0)
	}
}
