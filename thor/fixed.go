// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("uint256 overflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// MulDiv returns floor(x * y / d) computed with 512-bit intermediate precision.
// All operands and the result must fit into 256 bits.
func MulDiv(x, y, d *big.Int) (*big.Int, error) {
	if d.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	ux, overflow := uint256.FromBig(x)
	if overflow || x.Sign() < 0 {
		return nil, ErrOverflow
	}
	uy, overflow := uint256.FromBig(y)
	if overflow || y.Sign() < 0 {
		return nil, ErrOverflow
	}
	ud, overflow := uint256.FromBig(d)
	if overflow || d.Sign() < 0 {
		return nil, ErrOverflow
	}
	res, overflow := new(uint256.Int).MulDivOverflow(ux, uy, ud)
	if overflow {
		return nil, ErrOverflow
	}
	return res.ToBig(), nil
}

// ApplyBasisPoints returns floor(x * bps / MaxBasisPoints).
func ApplyBasisPoints(x *big.Int, bps uint64) (*big.Int, error) {
	return MulDiv(x, new(big.Int).SetUint64(bps), new(big.Int).SetUint64(MaxBasisPoints))
}

// EpochStart floors t to the epoch width.
func EpochStart(t, width uint64) uint64 {
	return t / width * width
}
