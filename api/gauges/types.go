// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gauges

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/vevote/api/restutil"
	"github.com/vechain/vevote/builtin/escrow/bribe"
	"github.com/vechain/vevote/thor"
)

type Gauge struct {
	Address   thor.Address          `json:"address"`
	Alive     bool                  `json:"alive"`
	CreatedAt uint64                `json:"createdAt"`
	Claimable *math.HexOrDecimal256 `json:"claimable"`
}

type Reward struct {
	Token          thor.Address          `json:"token"`
	Notified       *math.HexOrDecimal256 `json:"notified"`
	Carried        *math.HexOrDecimal256 `json:"carried"`
	Paid           *math.HexOrDecimal256 `json:"paid"`
	RewardPerToken *math.HexOrDecimal256 `json:"rewardPerToken"`
	Settled        bool                  `json:"settled"`
}

func convertReward(token thor.Address, info *bribe.EpochInfo) Reward {
	return Reward{
		Token:          token,
		Notified:       restutil.Amount(info.Notified),
		Carried:        restutil.Amount(info.Carried),
		Paid:           restutil.Amount(info.Paid),
		RewardPerToken: restutil.Amount(info.RewardPerToken),
		Settled:        info.Settled,
	}
}

// Epoch is the view of one gauge epoch: the votes it received and the rewards of one distributor.
type Epoch struct {
	Epoch       uint64                `json:"epoch"`
	Kind        string                `json:"kind"`
	Weight      *math.HexOrDecimal256 `json:"weight"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
	Rewards     []Reward              `json:"rewards"`
}

type Earned struct {
	Token  thor.Address          `json:"token"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}
