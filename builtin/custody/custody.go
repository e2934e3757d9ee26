// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package custody keeps token balances in state so that transfers commit or revert
// together with the ledger mutation that caused them.
package custody

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/builtin/escrow/reverts"
	"github.com/vechain/vevote/builtin/solidity"
	"github.com/vechain/vevote/state"
	"github.com/vechain/vevote/thor"
)

var (
	slotBalances = thor.NameToSlot("balances")
	slotMinted   = thor.NameToSlot("minted")
)

type accountKey struct {
	token  thor.Address
	holder thor.Address
}

func (k accountKey) Bytes() []byte {
	return append(k.token.Bytes(), k.holder.Bytes()...)
}

// Book is a multi-token balance sheet.
type Book struct {
	balances *solidity.Mapping[accountKey, *big.Int]
	minted   *solidity.Mapping[thor.Address, *big.Int]
}

func New(addr thor.Address, state *state.State) *Book {
	sctx := solidity.NewContext(addr, state)
	return &Book{
		balances: solidity.NewMapping[accountKey, *big.Int](sctx, slotBalances),
		minted:   solidity.NewMapping[thor.Address, *big.Int](sctx, slotMinted),
	}
}

// BalanceOf returns the amount of token held by holder.
func (b *Book) BalanceOf(token, holder thor.Address) (*big.Int, error) {
	bal, err := b.balances.Get(accountKey{token, holder})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if bal == nil {
		return new(big.Int), nil
	}
	return bal, nil
}

func (b *Book) setBalance(token, holder thor.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		b.balances.Delete(accountKey{token, holder})
		return nil
	}
	return b.balances.Set(accountKey{token, holder}, bal)
}

// Mint credits new tokens to holder, used to fund accounts.
func (b *Book) Mint(token, holder thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	bal, err := b.BalanceOf(token, holder)
	if err != nil {
		return err
	}
	if err := b.setBalance(token, holder, bal.Add(bal, amount)); err != nil {
		return err
	}
	total, err := b.Minted(token)
	if err != nil {
		return err
	}
	return b.minted.Set(token, total.Add(total, amount))
}

// Minted returns the total amount of token ever minted.
func (b *Book) Minted(token thor.Address) (*big.Int, error) {
	total, err := b.minted.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get minted")
	}
	if total == nil {
		return new(big.Int), nil
	}
	return total, nil
}

// Transfer moves amount of token from one holder to another,
// failing with ErrInsufficientReserve when from holds less.
func (b *Book) Transfer(token, from, to thor.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := b.BalanceOf(token, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientReserve, "%v holds %v of %v, needs %v", from, fromBal, token, amount)
	}
	toBal, err := b.BalanceOf(token, to)
	if err != nil {
		return err
	}
	if err := b.setBalance(token, from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return b.setBalance(token, to, toBal.Add(toBal, amount))
}
