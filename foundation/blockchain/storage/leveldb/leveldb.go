// Package leveldb implements the ability to read and write blocks to a
// LevelDB directory. Blocks live under the "blocks/" key prefix.
package leveldb

import (
	"encoding/json"
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const blockPrefix = "blocks/"

var latestHashKey = []byte("latestHash")

// LevelDB represents the serialization implementation for reading and
// storing blocks in LevelDB. This implements the database.Storage interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the LevelDB directory.
func New(directory string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, database.NewStorageError("open", err)
	}

	return &LevelDB{db: db}, nil
}

// Close closes the database connection.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Find locates the block by hash.
func (l *LevelDB) Find(hash string) (database.Block, error) {
	data, err := l.db.Get(blockKey(hash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return database.Block{}, database.ErrNotFound
		}
		return database.Block{}, database.NewStorageError("find", err)
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, database.NewStorageError("find", err)
	}

	return block, nil
}

// Append stores the block under its hash.
func (l *LevelDB) Append(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return database.NewStorageError("append", err)
	}

	if err := l.db.Put(blockKey(block.Hash), data, nil); err != nil {
		return database.NewStorageError("append", err)
	}

	return nil
}

// LatestHash returns the pointer to the head of the chain.
func (l *LevelDB) LatestHash() (string, error) {
	data, err := l.db.Get(latestHashKey, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", database.ErrNotFound
		}
		return "", database.NewStorageError("latest hash", err)
	}

	var rec database.LatestHashRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", database.NewStorageError("latest hash", err)
	}

	return rec.LatestHash, nil
}

// SetLatestHash moves the pointer to the head of the chain.
func (l *LevelDB) SetLatestHash(hash string) error {
	data, err := json.Marshal(database.LatestHashRecord{LatestHash: hash})
	if err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	if err := l.db.Put(latestHashKey, data, nil); err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	return nil
}

// IsEmpty reports whether any block has been stored.
func (l *LevelDB) IsEmpty() (bool, error) {
	iter := l.db.NewIterator(util.BytesPrefix([]byte(blockPrefix)), nil)
	defer iter.Release()

	found := iter.Next()
	if err := iter.Error(); err != nil {
		return false, database.NewStorageError("is empty", err)
	}

	return !found, nil
}

// blockKey forms the key for the specified block.
func blockKey(hash string) []byte {
	return []byte(blockPrefix + hash)
}
