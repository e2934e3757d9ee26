// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "math/big"

// Protocol defaults. Deployments override them through config variables.
const (
	Day  uint64 = 24 * 60 * 60
	Week uint64 = 7 * Day

	// DefaultEpochWidth is the width of a reward epoch, unlock times are floored to it.
	DefaultEpochWidth = Week
	// DefaultMaxLockTime is the longest lock duration, 2 x 182 days.
	DefaultMaxLockTime = 2 * 182 * Day

	// MaxBasisPoints is the denominator of every basis-point rate.
	MaxBasisPoints uint64 = 10_000
	// DefaultBoostRate is the boost top-up granted on full-duration locks, 10%.
	DefaultBoostRate uint64 = 1_000
)

var (
	// Precision scales reward-per-token values.
	Precision = big.NewInt(1e18)

	// Namespaces of the built-in ledgers, used to separate their storage.
	EscrowNamespace  = BytesToAddress([]byte("escrow"))
	VoterNamespace   = BytesToAddress([]byte("voter"))
	BribeNamespace   = BytesToAddress([]byte("bribe"))
	CustodyNamespace = BytesToAddress([]byte("custody"))
)
