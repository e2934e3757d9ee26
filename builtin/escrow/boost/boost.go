// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package boost

import (
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vechain/vevote/thor"
)

var logger = log.New("pkg", "boost")

func SetLogger(l log.Logger) {
	logger = l
}

// Balances reads custody balances of the reserve.
type Balances interface {
	BalanceOf(token thor.Address, holder thor.Address) (*big.Int, error)
}

// Oracle quotes an amount of token in USD, scaled by thor.Precision.
type Oracle interface {
	Quote(token thor.Address, amount *big.Int) (*big.Int, error)
}

// Params configures the boost. A zero Reserve disables it.
type Params struct {
	Reserve     thor.Address
	Token       thor.Address
	RateBps     uint64
	MinUSD      *big.Int
	MaxLockTime uint64
	Secondary   []thor.Address
}

// Payout is a secondary token paid to the locker along with the boost.
type Payout struct {
	Token  thor.Address
	Amount *big.Int
}

// Result is the top-up granted on lock creation.
type Result struct {
	Amount    *big.Int
	Secondary []Payout
}

// IsZero reports whether nothing is granted.
func (r *Result) IsZero() bool {
	return r.Amount.Sign() == 0 && len(r.Secondary) == 0
}

func none() *Result {
	return &Result{Amount: new(big.Int)}
}

// Calculator computes boosts against the current reserve balances.
type Calculator struct {
	params   Params
	balances Balances
	oracle   Oracle
}

func New(params Params, balances Balances, oracle Oracle) *Calculator {
	return &Calculator{params: params, balances: balances, oracle: oracle}
}

func (c *Calculator) Params() Params {
	return c.params
}

// Compute returns the boost for a new lock of amount locked for duration.
// Gates that are not met give an empty result, errors are storage faults only.
func (c *Calculator) Compute(amount *big.Int, duration uint64) (*Result, error) {
	p := c.params
	if p.Reserve.IsZero() || p.RateBps == 0 || amount.Sign() == 0 {
		return none(), nil
	}
	if duration < p.MaxLockTime {
		return none(), nil
	}
	if p.MinUSD != nil && p.MinUSD.Sign() > 0 {
		if c.oracle == nil {
			return none(), nil
		}
		usd, err := c.oracle.Quote(p.Token, amount)
		if err != nil {
			logger.Warn("boost price quote failed", "token", p.Token, "amount", amount, "err", err)
			return none(), nil
		}
		if usd.Cmp(p.MinUSD) < 0 {
			return none(), nil
		}
	}

	reserve, err := c.balances.BalanceOf(p.Token, p.Reserve)
	if err != nil {
		return nil, err
	}
	if reserve.Sign() == 0 {
		return none(), nil
	}
	boost, err := thor.ApplyBasisPoints(amount, p.RateBps)
	if err != nil {
		return nil, err
	}
	if boost.Cmp(reserve) > 0 {
		boost.Set(reserve)
	}
	if boost.Sign() == 0 {
		return none(), nil
	}

	res := &Result{Amount: boost}
	for _, token := range p.Secondary {
		if token == p.Token {
			continue
		}
		bal, err := c.balances.BalanceOf(token, p.Reserve)
		if err != nil {
			return nil, err
		}
		if bal.Sign() == 0 {
			continue
		}
		share, err := thor.MulDiv(bal, boost, reserve)
		if err != nil {
			return nil, err
		}
		if share.Cmp(bal) > 0 {
			share.Set(bal)
		}
		if share.Sign() == 0 {
			continue
		}
		res.Secondary = append(res.Secondary, Payout{Token: token, Amount: share})
	}
	return res, nil
}
