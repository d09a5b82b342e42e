package state

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// NetSync asks the peers for the blocks and transactions this node misses.
func (s *State) NetSync(ctx context.Context) error {
	return s.protocol.Sync(ctx)
}

// NetSendTxToPeers announces a transaction created on this node.
func (s *State) NetSendTxToPeers(ctx context.Context, tx database.Tx) error {
	return s.protocol.PublishTransaction(ctx, tx)
}
