// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package locks

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/builtin/escrow/lock"
	"github.com/vechain/vevote/builtin/escrow/voter"
	"github.com/vechain/vevote/thor"
)

type Attachment struct {
	ManagedID    uint64                `json:"managedId"`
	Weight       *math.HexOrDecimal256 `json:"weight"`
	WasPermanent bool                  `json:"wasPermanent"`
}

type Lock struct {
	ID           uint64                `json:"id"`
	Owner        thor.Address          `json:"owner"`
	Approved     *thor.Address         `json:"approved"`
	Amount       *math.HexOrDecimal256 `json:"amount"`
	Kind         string                `json:"kind"`
	UnlockTime   uint64                `json:"unlockTime"`
	CreatedAt    uint64                `json:"createdAt"`
	Transferable bool                  `json:"transferable"`
	Attachment   *Attachment           `json:"attachment"`
}

func convertLock(id uint64, l *lock.Lock) *Lock {
	res := &Lock{
		ID:           id,
		Owner:        l.Owner,
		Amount:       restutil.Amount(l.Amount),
		Kind:         l.Kind.String(),
		UnlockTime:   l.UnlockTime,
		CreatedAt:    l.CreatedAt,
		Transferable: l.IsTransferable(),
	}
	if !l.Approved.IsZero() {
		approved := l.Approved
		res.Approved = &approved
	}
	if att := l.Attachment; att != nil {
		res.Attachment = &Attachment{
			ManagedID:    att.ManagedID,
			Weight:       restutil.Amount(att.Weight),
			WasPermanent: att.WasPermanent,
		}
	}
	return res
}

type Balance struct {
	ID      uint64                `json:"id"`
	At      uint64                `json:"at"`
	Balance *math.HexOrDecimal256 `json:"balance"`
}

type Vote struct {
	Gauge  thor.Address          `json:"gauge"`
	Weight uint64                `json:"weight"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

type Votes struct {
	Epoch uint64                `json:"epoch"`
	Total *math.HexOrDecimal256 `json:"total"`
	Votes []Vote                `json:"votes"`
}

func convertVotes(a *voter.Allocation) *Votes {
	res := &Votes{Epoch: a.Epoch, Total: restutil.Amount(a.Total), Votes: make([]Vote, 0, len(a.Votes))}
	for _, v := range a.Votes {
		res.Votes = append(res.Votes, Vote{Gauge: v.Gauge, Weight: v.Weight, Amount: restutil.Amount(v.Amount)})
	}
	return res
}
