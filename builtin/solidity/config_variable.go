// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vechain/vevote/thor"
)

var logger = log.New("pkg", "solidity")

func SetLogger(l log.Logger) {
	logger = l
}

// ConfigVariable is a protocol parameter with a default value that can be overridden from state.
type ConfigVariable struct {
	slot        thor.Bytes32
	name        string
	value       uint64
	initialised bool
}

func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:        thor.BytesToBytes32([]byte(name)),
		name:        name,
		value:       defaultValue,
		initialised: false,
	}
}

func (c *ConfigVariable) Get() uint64 {
	return c.value
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() thor.Bytes32 {
	return c.slot
}

// Store writes an override into state. It takes effect on the next Override of a fresh variable.
func (c *ConfigVariable) Store(ctx *Context, value uint64) {
	ctx.state.SetStorage(ctx.address, c.slot, thor.BytesToBytes32(new(big.Int).SetUint64(value).Bytes()))
}

func (c *ConfigVariable) Override(ctx *Context) {
	if c.initialised { // early return to prevent subsequent reads
		return
	}
	storage, err := ctx.state.GetStorage(ctx.address, c.slot)
	if err != nil {
		logger.Warn("failed to read config value", "slot", c.Name(), "error", err)
		return
	}
	num := new(big.Int).SetBytes(storage.Bytes())

	c.initialised = true

	if num.Sign() != 0 && num.IsUint64() {
		c.value = num.Uint64()
		logger.Debug("override found new config value", "slot", c.Name(), "value", c.Get())
	} else {
		logger.Debug("using default config value", "slot", c.Name(), "value", c.Get())
	}
}
