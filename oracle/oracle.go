// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package oracle quotes token amounts in USD from a fixed price table.
package oracle

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vechain/vevote/thor"
)

// ErrNoPrice is returned for tokens missing from the table.
var ErrNoPrice = errors.New("no price")

// Static prices every token at a constant USD rate per whole unit.
// Amounts are in base units, quotes are USD scaled by thor.Precision.
type Static struct {
	prices   map[thor.Address]decimal.Decimal
	decimals map[thor.Address]int32
}

func New() *Static {
	return &Static{
		prices:   make(map[thor.Address]decimal.Decimal),
		decimals: make(map[thor.Address]int32),
	}
}

// Parse builds a table from token to decimal price strings, such as "0.0245".
func Parse(prices map[thor.Address]string) (*Static, error) {
	s := New()
	for token, str := range prices {
		price, err := decimal.NewFromString(str)
		if err != nil {
			return nil, errors.Wrapf(err, "price of %v", token)
		}
		if price.IsNegative() {
			return nil, errors.Errorf("negative price of %v", token)
		}
		s.Set(token, price, 18)
	}
	return s, nil
}

// Set prices token with the given number of decimals in its base unit.
func (s *Static) Set(token thor.Address, price decimal.Decimal, decimals int32) {
	s.prices[token] = price
	s.decimals[token] = decimals
}

// Quote returns the USD value of amount of token, rounded down.
func (s *Static) Quote(token thor.Address, amount *big.Int) (*big.Int, error) {
	price, ok := s.prices[token]
	if !ok {
		return nil, errors.WithMessagef(ErrNoPrice, "token %v", token)
	}
	units := decimal.NewFromBigInt(amount, -s.decimals[token])
	usd := units.Mul(price).Shift(18)
	return usd.Floor().BigInt(), nil
}
