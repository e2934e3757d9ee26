// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulDiv(t *testing.T) {
	res, err := MulDiv(big.NewInt(10), big.NewInt(3), big.NewInt(4))
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(7), res)

	// intermediate product exceeds 256 bits
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	res, err = MulDiv(max, big.NewInt(2), big.NewInt(2))
	assert.NoError(t, err)
	assert.Equal(t, max, res)

	_, err = MulDiv(max, big.NewInt(2), big.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = MulDiv(big.NewInt(-1), big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestApplyBasisPoints(t *testing.T) {
	res, err := ApplyBasisPoints(big.NewInt(1e18), DefaultBoostRate)
	assert.NoError(t, err)
	assert.Equal(t, big.NewInt(1e17), res)
}

func TestEpochStart(t *testing.T) {
	assert.Equal(t, uint64(0), EpochStart(Week-1, Week))
	assert.Equal(t, Week, EpochStart(Week, Week))
	assert.Equal(t, 3*Week, EpochStart(3*Week+Day, Week))
}

func TestAddressText(t *testing.T) {
	addr := BytesToAddress([]byte("owner"))
	text, err := addr.MarshalText()
	assert.NoError(t, err)

	var parsed Address
	assert.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, addr, parsed)

	assert.Error(t, parsed.UnmarshalText([]byte("0x1234")))
	assert.True(t, Address{}.IsZero())
}

func TestBlake2bKeys(t *testing.T) {
	a := Blake2b([]byte("points"), Uint64Bytes(1))
	b := Blake2b([]byte("points"), Uint64Bytes(2))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Blake2b(append([]byte("points"), Uint64Bytes(1)...)))
	assert.Equal(t, NameToSlot("x"), BytesToBytes32([]byte("x")))
}
