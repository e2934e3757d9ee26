// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/vevote/thor"
)

var errIndexOutOfRange = errors.New("index out of range")

// Array is an append-only dynamic array, similar to a storage array in Solidity.
// The length lives at pos, element i at blake2b(i, pos).
type Array[V any] struct {
	context *Context
	pos     thor.Bytes32
}

func NewArray[V any](context *Context, pos thor.Bytes32) *Array[V] {
	return &Array[V]{context: context, pos: pos}
}

// Len returns the number of elements.
func (a *Array[V]) Len() (uint64, error) {
	storage, err := a.context.state.GetStorage(a.context.address, a.pos)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, b := range storage[24:] {
		n = n<<8 | uint64(b)
	}
	return n, nil
}

func (a *Array[V]) setLen(n uint64) {
	a.context.state.SetStorage(a.context.address, a.pos, thor.BytesToBytes32(thor.Uint64Bytes(n)))
}

func (a *Array[V]) position(i uint64) thor.Bytes32 {
	return thor.Blake2b(thor.Uint64Bytes(i), a.pos.Bytes())
}

// At returns the element at index i.
func (a *Array[V]) At(i uint64) (value V, err error) {
	n, err := a.Len()
	if err != nil {
		return value, err
	}
	if i >= n {
		return value, errors.Wrapf(errIndexOutOfRange, "index %d, len %d", i, n)
	}
	err = a.context.state.DecodeStorage(a.context.address, a.position(i), func(raw []byte) error {
		return rlp.DecodeBytes(raw, &value)
	})
	return
}

// Last returns the last element, ok is false when the array is empty.
func (a *Array[V]) Last() (value V, ok bool, err error) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return value, false, err
	}
	value, err = a.At(n - 1)
	return value, err == nil, err
}

// Push appends value and returns its index.
func (a *Array[V]) Push(value V) (uint64, error) {
	n, err := a.Len()
	if err != nil {
		return 0, err
	}
	if err := a.context.state.EncodeStorage(a.context.address, a.position(n), func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	}); err != nil {
		return 0, err
	}
	a.setLen(n + 1)
	return n, nil
}

// Search returns the greatest index i for which pred(At(i)) holds, assuming pred is
// true for a prefix of the array. ok is false when pred fails for the first element.
func (a *Array[V]) Search(pred func(V) bool) (index uint64, value V, ok bool, err error) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, value, false, err
	}
	lo, hi := uint64(0), n
	// invariant: pred holds below lo, fails at and above hi
	for lo < hi {
		mid := lo + (hi-lo)/2
		v, err := a.At(mid)
		if err != nil {
			return 0, value, false, err
		}
		if pred(v) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0, value, false, nil
	}
	value, err = a.At(lo - 1)
	if err != nil {
		return 0, value, false, err
	}
	return lo - 1, value, true, nil
}

// ArrayMapping maps keys to independent arrays.
type ArrayMapping[K Key, V any] struct {
	context *Context
	basePos thor.Bytes32
}

func NewArrayMapping[K Key, V any](context *Context, pos thor.Bytes32) *ArrayMapping[K, V] {
	return &ArrayMapping[K, V]{context: context, basePos: pos}
}

// Of returns the array of key.
func (m *ArrayMapping[K, V]) Of(key K) *Array[V] {
	return NewArray[V](m.context, thor.Blake2b(key.Bytes(), m.basePos.Bytes()))
}
