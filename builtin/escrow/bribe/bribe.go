// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bribe

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/vevote/thor"
)

// Kind selects one of the two reward distributors of a gauge.
type Kind uint8

const (
	// External rewards are notified by anyone in whitelisted tokens.
	External Kind = iota
	// Internal rewards are trading fees notified by the fee source.
	Internal
)

func (k Kind) String() string {
	if k == Internal {
		return "internal"
	}
	return "external"
}

// ParseKind parses the text form of a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "external", "bribe":
		return External, nil
	case "internal", "fees":
		return Internal, nil
	}
	return 0, errors.Errorf("unknown distributor kind %q", s)
}

// Kinds lists all distributors of a gauge.
var Kinds = []Kind{External, Internal}

// EpochState is the accumulator of one reward token in one epoch.
// Carried holds rewards moved in from earlier epochs that had no votes.
type EpochState struct {
	Notified       *big.Int
	Carried        *big.Int
	RewardPerToken *big.Int
	Frozen         bool
}

func newEpochState() *EpochState {
	return &EpochState{
		Notified:       new(big.Int),
		Carried:        new(big.Int),
		RewardPerToken: new(big.Int),
	}
}

// total returns the rewards available to the voters of the epoch.
func (s *EpochState) total() *big.Int {
	return new(big.Int).Add(s.Notified, s.Carried)
}

// EpochInfo is the read model of an epoch for one reward token.
type EpochInfo struct {
	Epoch          uint64
	Notified       *big.Int
	Carried        *big.Int
	Paid           *big.Int // rewards shared by voters, zero while open or when carried forward
	TotalSupply    *big.Int
	RewardPerToken *big.Int // scaled by thor.Precision
	Settled        bool
}

// cursor marks an epoch, the pointer form tells an unset cursor from epoch zero.
type cursor struct {
	Epoch uint64
}

type lockEpochKey struct {
	gauge thor.Address
	id    uint64
	epoch uint64
}

func (k lockEpochKey) Bytes() []byte {
	b := append(k.gauge.Bytes(), thor.Uint64Bytes(k.id)...)
	return append(b, thor.Uint64Bytes(k.epoch)...)
}

type gaugeEpochKey struct {
	gauge thor.Address
	epoch uint64
}

func (k gaugeEpochKey) Bytes() []byte {
	return append(k.gauge.Bytes(), thor.Uint64Bytes(k.epoch)...)
}

type gaugeLockKey struct {
	gauge thor.Address
	id    uint64
}

func (k gaugeLockKey) Bytes() []byte {
	return append(k.gauge.Bytes(), thor.Uint64Bytes(k.id)...)
}

type distributorKey struct {
	gauge thor.Address
	kind  Kind
}

func (k distributorKey) Bytes() []byte {
	return append(k.gauge.Bytes(), byte(k.kind))
}

type tokenKey struct {
	gauge thor.Address
	kind  Kind
	token thor.Address
}

func (k tokenKey) Bytes() []byte {
	return append(append(k.gauge.Bytes(), byte(k.kind)), k.token.Bytes()...)
}

type rewardKey struct {
	tokenKey
	epoch uint64
}

func (k rewardKey) Bytes() []byte {
	return append(k.tokenKey.Bytes(), thor.Uint64Bytes(k.epoch)...)
}

type claimKey struct {
	tokenKey
	id uint64
}

func (k claimKey) Bytes() []byte {
	return append(k.tokenKey.Bytes(), thor.Uint64Bytes(k.id)...)
}
