// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/vevote/thor"
)

type Key interface {
	Bytes() []byte
}

// Uint64Key adapts an integer id to a mapping key.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return thor.Uint64Bytes(uint64(k))
}

// Mapping is a key/value storage abstraction for built-in ledgers, similar to the mapping in Solidity.
// Values are rlp encoded into a single slot at blake2b(key, basePos).
type Mapping[K Key, V any] struct {
	context *Context
	basePos thor.Bytes32
}

func NewMapping[K Key, V any](context *Context, pos thor.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{context: context, basePos: pos}
}

func (m *Mapping[K, V]) position(key K) thor.Bytes32 {
	return thor.Blake2b(key.Bytes(), m.basePos.Bytes())
}

// Get returns the value stored under key, or the zero value of V if absent.
// For pointer types, an absent key yields nil.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	err = m.context.state.DecodeStorage(m.context.address, m.position(key), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		if reflect.ValueOf(value).Kind() == reflect.Ptr {
			value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
		}
		return rlp.DecodeBytes(raw, &value)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return
}

// Set stores value under key. A nil pointer clears the slot.
func (m *Mapping[K, V]) Set(key K, value V) error {
	if isNil(value) {
		m.Delete(key)
		return nil
	}
	return m.context.state.EncodeStorage(m.context.address, m.position(key), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}

// Delete clears the slot of key.
func (m *Mapping[K, V]) Delete(key K) {
	m.context.state.SetRawStorage(m.context.address, m.position(key), nil)
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
