// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads deployment settings from a YAML file, then from VEVOTE_ prefixed environment variables.
package config

import (
	"math/big"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vechain/vevote/acl"
	"github.com/vechain/vevote/builtin/escrow"
	"github.com/vechain/vevote/oracle"
	"github.com/vechain/vevote/thor"
)

const envPrefix = "vevote"

type Boost struct {
	Reserve   thor.Address   `yaml:"reserve"`
	Rate      uint64         `yaml:"rate"`
	MinUSD    string         `yaml:"minUSD"    split_words:"true"`
	Secondary []thor.Address `yaml:"secondary"`
}

type Config struct {
	Token       thor.Address `yaml:"token"`
	EpochWidth  uint64       `yaml:"epochWidth"  split_words:"true"`
	MaxLockTime uint64       `yaml:"maxLockTime" split_words:"true"`
	BribeRouter thor.Address `yaml:"bribeRouter" split_words:"true"`
	Boost       Boost        `yaml:"boost"`

	// Grants maps a capability to the addresses holding it.
	Grants map[string][]thor.Address `yaml:"grants" ignored:"true"`
	// Prices maps a token address to its USD price per whole unit.
	Prices map[string]string `yaml:"prices"`

	DataDir            string        `yaml:"dataDir"            split_words:"true"`
	APIAddr            string        `yaml:"apiAddr"            split_words:"true"`
	APICors            string        `yaml:"apiCors"            split_words:"true"`
	LogsLimit          uint64        `yaml:"logsLimit"          split_words:"true"`
	CheckpointInterval time.Duration `yaml:"checkpointInterval" split_words:"true"`
}

// Default returns the protocol defaults with no grants and no prices.
func Default() *Config {
	return &Config{
		EpochWidth:         thor.DefaultEpochWidth,
		MaxLockTime:        thor.DefaultMaxLockTime,
		Boost:              Boost{Rate: thor.DefaultBoostRate, MinUSD: "0"},
		DataDir:            "data",
		APIAddr:            "localhost:8669",
		APICors:            "",
		LogsLimit:          1000,
		CheckpointInterval: time.Minute,
	}
}

// Load reads the YAML file at path over the defaults, an empty path skips the file.
// Environment variables take precedence over both.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var actions = map[string]bool{
	escrow.ActionGovern:         true,
	escrow.ActionFeeSource:      true,
	escrow.ActionEmissionSource: true,
	escrow.ActionManagedCreator: true,
}

func (c *Config) Validate() error {
	if c.Token.IsZero() {
		return errors.New("token is required")
	}
	if c.EpochWidth == 0 {
		return errors.New("epochWidth must be positive")
	}
	if c.MaxLockTime < c.EpochWidth {
		return errors.Errorf("maxLockTime %d shorter than an epoch", c.MaxLockTime)
	}
	if c.Boost.Rate > thor.MaxBasisPoints {
		return errors.Errorf("boost rate %d over %d basis points", c.Boost.Rate, thor.MaxBasisPoints)
	}
	for action := range c.Grants {
		if !actions[action] {
			return errors.Errorf("unknown capability %q", action)
		}
	}
	return nil
}

// minUSD converts the boost minimum to USD scaled by thor.Precision.
func (c *Config) minUSD() (*big.Int, error) {
	if c.Boost.MinUSD == "" {
		return new(big.Int), nil
	}
	d, err := decimal.NewFromString(c.Boost.MinUSD)
	if err != nil {
		return nil, errors.Wrap(err, "boost minUSD")
	}
	if d.IsNegative() {
		return nil, errors.New("boost minUSD is negative")
	}
	return d.Shift(18).Floor().BigInt(), nil
}

// Params returns the ledger params of the deployment.
func (c *Config) Params() (escrow.Params, error) {
	minUSD, err := c.minUSD()
	if err != nil {
		return escrow.Params{}, err
	}
	params := escrow.DefaultParams(c.Token)
	params.EpochWidth = c.EpochWidth
	params.MaxLockTime = c.MaxLockTime
	params.BribeRouter = c.BribeRouter
	params.BoostReserve = c.Boost.Reserve
	params.BoostRate = c.Boost.Rate
	params.BoostMinUSD = minUSD
	params.BoostSecondary = c.Boost.Secondary
	return params, nil
}

func (c *Config) Authorizer() *acl.Static {
	return acl.New(c.Grants)
}

func (c *Config) Oracle() (*oracle.Static, error) {
	prices := make(map[thor.Address]string, len(c.Prices))
	for token, price := range c.Prices {
		addr, err := thor.ParseAddress(token)
		if err != nil {
			return nil, errors.Wrapf(err, "price token %q", token)
		}
		prices[*addr] = price
	}
	return oracle.Parse(prices)
}
