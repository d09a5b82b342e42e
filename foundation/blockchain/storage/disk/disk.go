// Package disk implements the ability to read and write blocks to disk
// with each block stored in its own JSON file named by hash.
package disk

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

const latestHashFile = "latestHash.json"

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the
// database.Storage interface.
type Disk struct {
	dbPath string
	mu     sync.Mutex
}

// New constructs a Disk value for use. The blocks folder is created when
// it does not exist.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Join(dbPath, "blocks"), 0755); err != nil {
		return nil, database.NewStorageError("open", err)
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Find reads the block file for the specified hash.
func (d *Disk) Find(hash string) (database.Block, error) {
	if !validName(hash) {
		return database.Block{}, database.ErrNotFound
	}

	data, err := os.ReadFile(d.blockPath(hash))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// Append writes the block to its own file.
func (d *Disk) Append(block database.Block) error {
	if !validName(block.Hash) {
		return database.NewStorageError("append", errors.New("invalid block hash"))
	}

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return database.NewStorageError("append", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := writeFile(d.blockPath(block.Hash), data); err != nil {
		return database.NewStorageError("append", err)
	}

	return nil
}

// LatestHash reads the pointer record.
func (d *Disk) LatestHash() (string, error) {
	data, err := os.ReadFile(filepath.Join(d.dbPath, latestHashFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
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

// SetLatestHash replaces the pointer record.
func (d *Disk) SetLatestHash(hash string) error {
	data, err := json.Marshal(database.LatestHashRecord{LatestHash: hash})
	if err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := writeFile(filepath.Join(d.dbPath, latestHashFile), data); err != nil {
		return database.NewStorageError("set latest hash", err)
	}

	return nil
}

// IsEmpty reports whether the blocks folder holds any block file.
func (d *Disk) IsEmpty() (bool, error) {
	entries, err := os.ReadDir(filepath.Join(d.dbPath, "blocks"))
	if err != nil {
		return false, database.NewStorageError("is empty", err)
	}

	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".json" {
			return false, nil
		}
	}

	return true, nil
}

// =============================================================================

// blockPath forms the path to the specified block.
func (d *Disk) blockPath(hash string) string {
	return filepath.Join(d.dbPath, "blocks", hash+".json")
}

// writeFile replaces the file content through a temporary file and a
// rename so readers never observe a partial document.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// validName guards against hashes that would escape the blocks folder.
func validName(hash string) bool {
	if hash == "" || hash == "." || hash == ".." {
		return false
	}

	return filepath.Base(hash) == hash
}
