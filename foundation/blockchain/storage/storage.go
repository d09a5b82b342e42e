// Package storage selects and opens the backend used to maintain the
// blockchain.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/bolt"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/leveldb"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
)

// Set of backends that can be opened.
const (
	BackendMemory  = "memory"
	BackendDisk    = "disk"
	BackendBolt    = "bolt"
	BackendLevelDB = "leveldb"
)

// Open constructs the named backend rooted at the specified path.
func Open(backend string, dbPath string) (database.Storage, error) {
	switch backend {
	case BackendMemory:
		return memory.New(), nil

	case BackendDisk:
		return disk.New(dbPath)

	case BackendBolt:
		if err := os.MkdirAll(dbPath, 0755); err != nil {
			return nil, database.NewStorageError("open", err)
		}
		return bolt.New(filepath.Join(dbPath, "blockchain.db"))

	case BackendLevelDB:
		return leveldb.New(dbPath)
	}

	return nil, fmt.Errorf("unknown storage backend %q", backend)
}
