// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"encoding/binary"
	"hash"
	"sync"

	"github.com/ethereum/go-ethereum/crypto/blake2b"
)

var blake2bPool = sync.Pool{
	New: func() any {
		h, _ := blake2b.New256(nil)
		return h
	},
}

// Blake2b hashes the concatenation of data, it derives the slots of mapping entries and array items.
func Blake2b(data ...[]byte) (h Bytes32) {
	if len(data) == 1 {
		return blake2b.Sum256(data[0])
	}
	w := blake2bPool.Get().(hash.Hash)
	for _, b := range data {
		w.Write(b)
	}
	w.Sum(h[:0])
	w.Reset()
	blake2bPool.Put(w)
	return h
}

// Uint64Bytes returns the big endian encoding of n, used to build storage keys.
func Uint64Bytes(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}
