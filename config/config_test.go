// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/thor"
)

var (
	token     = thor.BytesToAddress([]byte("token"))
	gov       = thor.BytesToAddress([]byte("gov"))
	reserve   = thor.BytesToAddress([]byte("reserve"))
	secondary = thor.BytesToAddress([]byte("secondary"))
)

const sample = `
token: %TOKEN%
epochWidth: 604800
maxLockTime: 31449600
boost:
  reserve: %RESERVE%
  rate: 500
  minUSD: "12.5"
  secondary:
    - %SECONDARY%
grants:
  govern:
    - %GOV%
  managed-creator:
    - %GOV%
prices:
  "%TOKEN%": "0.02"
checkpointInterval: 30s
`

func writeConfig(t *testing.T, content string) string {
	for k, v := range map[string]thor.Address{"%TOKEN%": token, "%RESERVE%": reserve, "%SECONDARY%": secondary, "%GOV%": gov} {
		content = strings.ReplaceAll(content, k, v.String())
	}
	path := filepath.Join(t.TempDir(), "vevote.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, token, cfg.Token)
	assert.Equal(t, 52*thor.Week, cfg.MaxLockTime)
	assert.Equal(t, 30*time.Second, cfg.CheckpointInterval)
	assert.Equal(t, "localhost:8669", cfg.APIAddr, "defaults are kept")

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, token, params.Token)
	assert.Equal(t, thor.Week, params.EpochWidth)
	assert.Equal(t, reserve, params.BoostReserve)
	assert.Equal(t, uint64(500), params.BoostRate)
	assert.Equal(t, []thor.Address{secondary}, params.BoostSecondary)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(125), big.NewInt(1e17)).String(), params.BoostMinUSD.String())

	auth := cfg.Authorizer()
	assert.True(t, auth.HasCapability(gov, escrow.ActionGovern))
	assert.True(t, auth.HasCapability(gov, escrow.ActionManagedCreator))
	assert.False(t, auth.HasCapability(gov, escrow.ActionFeeSource))

	prices, err := cfg.Oracle()
	require.NoError(t, err)
	usd, err := prices.Quote(token, new(big.Int).Mul(big.NewInt(100), thor.Precision))
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(2), thor.Precision).String(), usd.String())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, sample)
	t.Setenv("VEVOTE_MAX_LOCK_TIME", "2419200")
	t.Setenv("VEVOTE_BOOST_RATE", "0")
	t.Setenv("VEVOTE_API_ADDR", "0.0.0.0:9000")
	t.Setenv("VEVOTE_BRIBE_ROUTER", gov.String())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4*thor.Week, cfg.MaxLockTime)
	assert.Zero(t, cfg.Boost.Rate)
	assert.Equal(t, "0.0.0.0:9000", cfg.APIAddr)
	assert.Equal(t, gov, cfg.BribeRouter)
	assert.Equal(t, "12.5", cfg.Boost.MinUSD, "unset variables keep file values")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	_, err = Load(writeConfig(t, "token: [1, 2"))
	assert.ErrorContains(t, err, "parse config file")

	_, err = Load("")
	assert.ErrorContains(t, err, "token is required")

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero epoch", "token: %TOKEN%\nepochWidth: 0\n", "epochWidth"},
		{"short max lock", "token: %TOKEN%\nmaxLockTime: 60\n", "shorter than an epoch"},
		{"boost over 100%", "token: %TOKEN%\nboost:\n  rate: 10001\n", "basis points"},
		{"unknown capability", "token: %TOKEN%\ngrants:\n  mint:\n    - %GOV%\n", "unknown capability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestInvalidValues(t *testing.T) {
	cfg := Default()
	cfg.Token = token
	cfg.Boost.MinUSD = "-1"
	_, err := cfg.Params()
	assert.Error(t, err)

	cfg.Boost.MinUSD = "ten"
	_, err = cfg.Params()
	assert.Error(t, err)

	cfg.Prices = map[string]string{"0x01": "1"}
	_, err = cfg.Oracle()
	assert.Error(t, err)

	cfg.Prices = map[string]string{token.String(): "-1"}
	_, err = cfg.Oracle()
	assert.Error(t, err)
}
