// Package memory implements the ability to read and write blocks to memory
// using a map keyed by block hash.
package memory

import (
	"encoding/json"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory. Blocks are kept in their encoded form so callers never
// share state with the store. This implements the database.Storage interface.
type Memory struct {
	mu         sync.RWMutex
	blocks     map[string][]byte
	latestHash string
	hasLatest  bool
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{
		blocks: make(map[string][]byte),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Find locates the block by hash.
func (m *Memory) Find(hash string) (database.Block, error) {
	m.mu.RLock()
	data, exists := m.blocks[hash]
	m.mu.RUnlock()

	if !exists {
		return database.Block{}, database.ErrNotFound
	}

	var block database.Block
	if err := json.Unmarshal(data, &block); err != nil {
		return database.Block{}, database.NewStorageError("find", err)
	}

	return block, nil
}

// Append stores the block under its hash.
func (m *Memory) Append(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return database.NewStorageError("append", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[block.Hash] = data

	return nil
}

// LatestHash returns the pointer to the head of the chain.
func (m *Memory) LatestHash() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasLatest {
		return "", database.ErrNotFound
	}

	return m.latestHash, nil
}

// SetLatestHash moves the pointer to the head of the chain.
func (m *Memory) SetLatestHash(hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latestHash = hash
	m.hasLatest = true

	return nil
}

// IsEmpty reports whether any block has been stored.
func (m *Memory) IsEmpty() (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blocks) == 0, nil
}
