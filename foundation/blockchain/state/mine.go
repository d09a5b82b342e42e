package state

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// MineNewBlock moves every pending transaction into a new block at the head
// of the chain and announces the block to the peers. An empty mempool
// produces a block with no transactions.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	txs := s.mempool.DrainAll()

	s.evHandler("state: MineNewBlock: MINING: txs[%d]", len(txs))

	block, err := s.chain.Mine(txs)
	if err != nil {

		// Put the transactions back so the next attempt can mine them.
		for _, tx := range txs {
			s.mempool.Add(tx)
		}
		return database.Block{}, fmt.Errorf("mine: %w", err)
	}

	s.evHandler("viewer: block[%s] prev[%s] txs[%d]", block.Hash, block.PrevBlockHash, len(block.Transactions))

	// The block is stored. Failing to announce it only delays the peers
	// until their next resync.
	if err := s.protocol.PublishBlock(ctx, block); err != nil {
		s.evHandler("state: MineNewBlock: MINING: publish: WARNING: %s", err)
	}

	return block, nil
}

// IsAutoMineDue reports whether the mempool reached the configured size
// that starts mining without a request.
func (s *State) IsAutoMineDue() bool {
	return s.autoMine > 0 && s.mempool.Count() >= s.autoMine
}
