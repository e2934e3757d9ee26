// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voter

import (
	"math/big"

	"github.com/vechain/vevote/thor"
)

// Gauge is a vote target.
type Gauge struct {
	Alive     bool
	CreatedAt uint64
}

// Vote is the share of a lock's power given to one gauge.
type Vote struct {
	Gauge  thor.Address
	Weight uint64
	Amount *big.Int
}

// Allocation is the current distribution of a lock's power. Epoch is the bucket the votes landed in.
type Allocation struct {
	Epoch uint64
	Votes []Vote
	Total *big.Int
}

// Depositor receives the per epoch vote deposits of locks.
type Depositor interface {
	Deposit(gauge thor.Address, id uint64, epoch uint64, amount *big.Int) error
	Withdraw(gauge thor.Address, id uint64, epoch uint64, amount *big.Int) error
}

type gaugeEpochKey struct {
	gauge thor.Address
	epoch uint64
}

func (k gaugeEpochKey) Bytes() []byte {
	return append(k.gauge.Bytes(), thor.Uint64Bytes(k.epoch)...)
}

// gaugeAddress derives the address of the n-th gauge.
func gaugeAddress(n uint64) thor.Address {
	return thor.BytesToAddress(thor.Blake2b([]byte("gauge"), thor.Uint64Bytes(n)).Bytes())
}
