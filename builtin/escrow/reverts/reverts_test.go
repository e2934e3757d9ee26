// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_Reverts(t *testing.T) {
	revert := New("test")
	assert.Equal(t, "test", revert.message)
	assert.Equal(t, revert.Error(), revert.message)

	assert.True(t, IsRevertErr(revert))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(big.NewInt(0)))
}

func Test_WrappedSentinels(t *testing.T) {
	err := errors.WithMessage(ErrLockExpired, "lock 7")
	assert.True(t, IsRevertErr(err))
	assert.ErrorIs(t, err, ErrLockExpired)
	assert.NotErrorIs(t, err, ErrLockNotExpired)
	assert.Equal(t, "lock 7: lock expired", err.Error())
}

func Test_KindOf(t *testing.T) {
	err := errors.WithMessage(ErrDisableDuringVotingPaused, "vote on lock 3")
	assert.ErrorIs(t, err, ErrDisableDuringVotingPaused)
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.NotErrorIs(t, ErrAccessDenied, ErrDisableDuringVotingPaused)
	assert.Equal(t, "vote on lock 3: disabled during voting paused", err.Error())

	assert.Nil(t, ErrAccessDenied.Unwrap())
}
