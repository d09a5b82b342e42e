// Package bolt implements the ability to read and write blocks to a bbolt
// database file with a bucket for blocks and a bucket for the latest hash.
package bolt

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	bbolt "go.etcd.io/bbolt"
)

var (
	blocksBucket     = []byte("blocks")
	latestHashBucket = []byte("latestHash")
	latestHashKey    = []byte("latestHash")
)

// Bolt represents the serialization implementation for reading and storing
// blocks in a bbolt file. This implements the database.Storage interface.
type Bolt struct {
	db *bbolt.DB
}

// New opens or creates the database file and makes sure the buckets exist.
func New(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, database.NewStorageError("open", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(latestHashBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, database.NewStorageError("open", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Find locates the block by hash.
func (b *Bolt) Find(hash string) (database.Block, error) {
	var block database.Block

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get([]byte(hash))
		if data == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(data, &block)
	})

	switch {
	case errors.Is(err, database.ErrNotFound):
		return database.Block{}, err
	case err != nil:
		return database.Block{}, database.NewStorageError("find", err)
	}

	return block, nil
}

// Append stores the block under its hash.
func (b *Bolt) Append(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return database.NewStorageError("append", err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blocksBucket).Put([]byte(block.Hash), data)
	})
	if err != nil {
		return database.NewStorageError("append", err)
	}

	return nil
}

// LatestHash returns the pointer to the head of the chain.
func (b *Bolt) LatestHash() (string, error) {
	var rec database.LatestHashRecord

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(latestHashBucket).Get(latestHashKey)
		if data == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})

	switch {
	case errors.Is(err, database.ErrNotFound):
		return "", err
	case err != nil:
		return "", database.NewStorageError("latest hash", err)
	}

	return rec.LatestHash, nil
}

// SetLatestHash moves the pointer to the head of the chain.
func (b *Bolt) SetLatestHash(hash string) error {
	data, err := json.Marshal(database.LatestHashRecord{LatestHash: hash})
	if err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(latestHashBucket).Put(latestHashKey, data)
	})
	if err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	return nil
}

// IsEmpty reports whether any block has been stored.
func (b *Bolt) IsEmpty() (bool, error) {
	empty := true

	err := b.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(blocksBucket).Cursor().First()
		empty = k == nil
		return nil
	})
	if err != nil {
		return false, database.NewStorageError("is empty", err)
	}

	return empty, nil
}
