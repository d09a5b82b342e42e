package chain

import (
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// BlockFinder represents the behavior the iterator needs to walk the chain.
type BlockFinder interface {
	Find(hash string) (database.Block, error)
}

// Iterator walks the chain backwards from a starting hash to the genesis
// block. An iterator is used once, construct a new one to walk again.
type Iterator struct {
	finder  BlockFinder
	current string // Hash of the block returned by the next call to Next.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// NewIterator constructs an iterator positioned at the specified hash.
func NewIterator(finder BlockFinder, startHash string) *Iterator {
	return &Iterator{
		finder:  finder,
		current: startHash,
		eoc:     startHash == "",
	}
}

// Next returns the block at the cursor and moves the cursor to its parent.
// It returns database.ErrEndOfChain once the genesis block was returned or
// the cursor points at a block that is not stored.
func (it *Iterator) Next() (database.Block, error) {
	if it.eoc {
		return database.Block{}, database.ErrEndOfChain
	}

	block, err := it.finder.Find(it.current)
	if err != nil {
		it.eoc = true
		if errors.Is(err, database.ErrNotFound) {
			return database.Block{}, database.ErrEndOfChain
		}
		return database.Block{}, err
	}

	it.current = block.PrevBlockHash
	if it.current == "" {
		it.eoc = true
	}

	return block, nil
}

// Done returns the end of chain value.
func (it *Iterator) Done() bool {
	return it.eoc
}
