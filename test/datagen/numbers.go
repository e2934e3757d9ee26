// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"math/big"
	mathrand "math/rand/v2"

	"github.com/vechain/vevote/thor"
)

func RandIntN(n int) int {
	return mathrand.N(n) //#nosec G404
}

func RandUint64N(n uint64) uint64 {
	return mathrand.N(n) //#nosec G404
}

// RandAmount returns between 1 and max whole tokens in base units.
func RandAmount(max uint64) *big.Int {
	n := new(big.Int).SetUint64(RandUint64N(max) + 1)
	return n.Mul(n, thor.Precision)
}
