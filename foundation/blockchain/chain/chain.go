// Package chain maintains the hash linked chain of blocks on top of a
// database.Storage and keeps track of the head of the chain.
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// Set of error variables for chain management.
var (
	ErrNotInitialized     = errors.New("blockchain not initialized")
	ErrAlreadyInitialized = errors.New("blockchain already initialized")
	ErrInvalidHash        = database.ErrInvalidHash
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Chain manages the blocks in storage and the latest hash pointer. Calls
// that mutate the chain are serialized so two blocks never share a parent
// within a single node.
//
// Appending a block and moving the pointer are two separate storage calls.
// A failure between them leaves a stored block the pointer does not reach.
type Chain struct {
	mu        sync.Mutex
	storage   database.Storage
	evHandler EventHandler

	headMu     sync.RWMutex
	latestHash string
}

// New constructs a chain over the storage. An empty storage is accepted so
// a node can start with nothing and receive its blocks from peers.
func New(storage database.Storage, evHandler EventHandler) (*Chain, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	latestHash, err := storage.LatestHash()
	switch {
	case errors.Is(err, database.ErrNotFound):
		latestHash = ""
	case err != nil:
		return nil, fmt.Errorf("loading latest hash: %w", err)
	}

	c := Chain{
		storage:    storage,
		evHandler:  ev,
		latestHash: latestHash,
	}

	ev("chain: New: latestHash[%s]", latestHash)

	return &c, nil
}

// Open constructs a chain over storage that must already hold blocks.
func Open(storage database.Storage, evHandler EventHandler) (*Chain, error) {
	empty, err := storage.IsEmpty()
	if err != nil {
		return nil, err
	}

	if empty {
		return nil, ErrNotInitialized
	}

	return New(storage, evHandler)
}

// InitGenesis writes the genesis block into empty storage and returns the
// chain that starts from it.
func InitGenesis(storage database.Storage, address string, issuance decimal.Decimal, evHandler EventHandler) (*Chain, database.Block, error) {
	empty, err := storage.IsEmpty()
	if err != nil {
		return nil, database.Block{}, err
	}

	if !empty {
		return nil, database.Block{}, ErrAlreadyInitialized
	}

	checksum, err := database.ToAddress(address)
	if err != nil {
		return nil, database.Block{}, fmt.Errorf("genesis address[%s]: %w", address, err)
	}
	address = checksum

	c, err := New(storage, evHandler)
	if err != nil {
		return nil, database.Block{}, err
	}

	genesis := database.NewGenesisBlock(address, issuance)

	c.evHandler("chain: InitGenesis: address[%s] issuance[%s] block[%s]", address, issuance, genesis.Hash)

	if err := c.write(genesis); err != nil {
		return nil, database.Block{}, err
	}

	return c, genesis, nil
}

// =============================================================================

// Mine builds a block from the transactions on top of the current head,
// stores it and moves the head to it. An empty set of transactions still
// produces a block.
func (c *Chain) Mine(txs []database.Tx) (database.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevHash := c.LatestHash()
	if prevHash == "" {
		return database.Block{}, ErrNotInitialized
	}

	block := database.NewBlock(prevHash, txs)

	c.evHandler("chain: Mine: prevHash[%s] txs[%d] block[%s]", prevHash, len(block.Transactions), block.Hash)

	if err := c.writeLocked(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// AddBlock stores a block received from a peer and moves the head to it.
// The hash must match the content. The parent is not checked, the last
// block written becomes the head.
func (c *Chain) AddBlock(block database.Block) error {
	if err := block.VerifyHash(); err != nil {
		return fmt.Errorf("block[%s]: %w", block.Hash, err)
	}

	c.evHandler("chain: AddBlock: block[%s] prevHash[%s]", block.Hash, block.PrevBlockHash)

	return c.write(block)
}

// FindBlock locates the block by hash.
func (c *Chain) FindBlock(hash string) (database.Block, error) {
	return c.storage.Find(hash)
}

// HasBlock reports whether the block is already stored.
func (c *Chain) HasBlock(hash string) (bool, error) {
	_, err := c.storage.Find(hash)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	return true, nil
}

// Contains reports whether the block is part of the chain that ends at the
// head. A block that is stored but was never made the head is not.
func (c *Chain) Contains(hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}

	iter := c.Iterator()

	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			return false, err
		}

		if block.Hash == hash {
			return true, nil
		}
	}

	return false, nil
}

// FindNext returns the block whose parent is the specified hash. An empty
// hash asks for the genesis block. It returns database.ErrNotFound when the
// hash is the head of this chain or is not part of it.
func (c *Chain) FindNext(hash string) (database.Block, error) {
	iter := c.Iterator()

	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			return database.Block{}, err
		}

		if block.Hash == hash {
			break
		}

		if block.PrevBlockHash == hash {
			return block, nil
		}
	}

	return database.Block{}, database.ErrNotFound
}

// LatestHash returns the hash at the head of the chain. It is empty while
// the chain has no blocks.
func (c *Chain) LatestHash() string {
	c.headMu.RLock()
	defer c.headMu.RUnlock()

	return c.latestHash
}

// LatestBlock returns the block at the head of the chain.
func (c *Chain) LatestBlock() (database.Block, error) {
	hash := c.LatestHash()
	if hash == "" {
		return database.Block{}, ErrNotInitialized
	}

	return c.storage.Find(hash)
}

// Blocks returns every block reachable from the head, newest first.
func (c *Chain) Blocks() ([]database.Block, error) {
	var blocks []database.Block

	iter := c.Iterator()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// Iterator returns an iterator positioned at the head of the chain.
func (c *Chain) Iterator() *Iterator {
	return NewIterator(c.storage, c.LatestHash())
}

// =============================================================================

// write serializes the append and pointer update.
func (c *Chain) write(block database.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.writeLocked(block)
}

// writeLocked appends the block and moves the pointer. The caller must
// hold c.mu.
func (c *Chain) writeLocked(block database.Block) error {
	if err := c.storage.Append(block); err != nil {
		return fmt.Errorf("append block[%s]: %w", block.Hash, err)
	}

	if err := c.storage.SetLatestHash(block.Hash); err != nil {
		return fmt.Errorf("set latest hash[%s]: %w", block.Hash, err)
	}

	c.headMu.Lock()
	c.latestHash = block.Hash
	c.headMu.Unlock()

	return nil
}
