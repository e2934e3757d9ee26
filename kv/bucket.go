// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket is a key prefix carving a logical namespace out of a store.
type Bucket string

// Key returns key prefixed by the bucket, in a new slice.
func (b Bucket) Key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

// NewGetter reads src through the bucket.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
		IsNotFoundFunc
	}{
		func(key []byte) ([]byte, error) { return src.Get(b.Key(key)) },
		func(key []byte) (bool, error) { return src.Has(b.Key(key)) },
		src.IsNotFound,
	}
}

// NewPutter writes src through the bucket.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error { return src.Put(b.Key(key), val) },
		func(key []byte) error { return src.Delete(b.Key(key)) },
	}
}
