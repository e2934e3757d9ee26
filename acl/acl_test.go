// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/vevote/thor"
)

func TestStatic(t *testing.T) {
	gov := thor.BytesToAddress([]byte("gov"))
	fees := thor.BytesToAddress([]byte("fees"))

	s := New(map[string][]thor.Address{
		"govern":     {gov},
		"fee-source": {fees, gov, fees},
	})

	assert.True(t, s.HasCapability(gov, "govern"))
	assert.True(t, s.HasCapability(gov, "fee-source"))
	assert.True(t, s.HasCapability(fees, "fee-source"))
	assert.False(t, s.HasCapability(fees, "govern"))
	assert.False(t, s.HasCapability(gov, "unknown"))
	assert.Equal(t, 2, s.Holders("fee-source"))
	assert.Equal(t, 0, s.Holders("unknown"))
}
