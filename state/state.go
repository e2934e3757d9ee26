// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/vevote/cache"
	"github.com/vechain/vevote/kv"
	"github.com/vechain/vevote/stackedmap"
	"github.com/vechain/vevote/thor"
)

const slotCacheSize = 16384

// storageBucket prefixes every slot persisted by State.
var storageBucket = kv.Bucket("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

func (k storageKey) bytes() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}

// State manages slots of several namespaces on top of a kv store.
type State struct {
	db    kv.Getter
	cache *cache.LRU     // committed raw slots
	sm    *stackedmap.StackedMap
}

// New create state object.
func New(db kv.Getter) *State {
	c, _ := cache.NewLRU(slotCacheSize)
	s := &State{
		db:    storageBucket.NewGetter(db),
		cache: c,
	}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(func(key any) (any, bool, error) {
		return s.cacheGetter(key)
	})
	// base level, never popped by RevertTo
	s.sm.Push()
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		v, err := s.cache.GetOrLoad(k, func(any) (any, error) {
			raw, err := s.db.Get(k.bytes())
			if err != nil {
				if s.db.IsNotFound(err) {
					return rlp.RawValue(nil), nil
				}
				return nil, err
			}
			return rlp.RawValue(raw), nil
		})
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 {
		revision = 1
	}
	s.sm.PopTo(revision)
}

// Changes returns the number of distinct slots modified since the last commit.
func (s *State) Changes() int {
	return len(s.changes())
}

func (s *State) changes() map[storageKey]rlp.RawValue {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k, v any) bool {
		if key, ok := k.(storageKey); ok {
			changes[key] = v.(rlp.RawValue)
		}
		return true
	})
	return changes
}

// Commit writes all journaled changes into the store as one batch.
// The journal is cleared afterwards, checkpoints taken before are no longer valid.
func (s *State) Commit(store kv.Store) error {
	changes := s.changes()
	if len(changes) == 0 {
		return nil
	}

	batch := store.NewBatch()
	putter := storageBucket.NewPutter(batch)
	for key, raw := range changes {
		var err error
		if len(raw) == 0 {
			err = putter.Delete(key.bytes())
		} else {
			err = putter.Put(key.bytes(), raw)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for key, raw := range changes {
		s.cache.Add(key, raw)
	}
	s.reset()
	return nil
}
