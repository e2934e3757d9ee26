// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb stores the ledger state in goleveldb.
package lvldb

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/vevote/kv"
)

var _ kv.GetPutCloser = (*LevelDB)(nil)

// minCacheSize is the floor of both options, in MiB and in files.
const minCacheSize = 16

// Options tunes a persistent database. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int // MiB, split between the block cache and the write buffer
	OpenFilesCacheCapacity int
}

var (
	syncWrite = &opt.WriteOptions{Sync: true}
	readOpts  = &opt.ReadOptions{}
)

type LevelDB struct {
	db *leveldb.DB
}

// New opens the database at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open level db storage")
	}
	return open(stg, opts)
}

// NewMem creates a database living in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cacheSize := max(opts.CacheSize, minCacheSize)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, minCacheSize),
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		stg.Close()
		return nil, pkgerrors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// Get fails with an error satisfying IsNotFound for a missing key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, readOpts)
}

func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, readOpts)
}

func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, syncWrite)
}

func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, syncWrite)
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// NewBatch returns a batch applied atomically by Write.
func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{db: ldb.db}
}

type batch struct {
	db *leveldb.DB
	b  leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Len() int {
	return b.b.Len()
}

func (b *batch) Write() error {
	return b.db.Write(&b.b, syncWrite)
}
