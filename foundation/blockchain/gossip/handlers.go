package gossip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// handlerFunc processes the raw payload of one message.
type handlerFunc func(ctx context.Context, data []byte) error

// handle decodes the payload into the message type before calling fn.
func handle[T Message](fn func(ctx context.Context, msg T) error) handlerFunc {
	return func(ctx context.Context, data []byte) error {
		var msg T
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Kind(), err)
		}

		return fn(ctx, msg)
	}
}

// =============================================================================

// onSyncRequest replies with the block that follows the requester's head.
// Nothing is sent when this node has no such block.
func (p *Protocol) onSyncRequest(ctx context.Context, msg SyncRequest) error {
	if msg.NodeID == p.nodeID {
		return nil
	}

	block, err := p.ledger.FindNext(msg.LatestHash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find next for node[%s]: %w", msg.NodeID, err)
	}

	p.evHandler("gossip: onSyncRequest: node[%s] latestHash[%s] sending block[%s]", msg.NodeID, msg.LatestHash, block.Hash)

	return p.publish(ctx, SyncBlock{NodeID: msg.NodeID, Block: block})
}

// onSyncBlock stores a block sent to this node and asks for the following
// one after the retry delay. The loop ends when no peer replies.
func (p *Protocol) onSyncBlock(ctx context.Context, msg SyncBlock) error {
	if !p.accepts(msg.NodeID) {
		return nil
	}

	// Several peers answer the same request. Only the first copy extends
	// the chain and schedules the next request. A block that was stored
	// without moving the head is written again.
	onChain, err := p.ledger.Contains(msg.Block.Hash)
	if err != nil {
		return err
	}
	if onChain {
		p.evHandler("gossip: onSyncBlock: block[%s] already on chain", msg.Block.Hash)
		return nil
	}

	if err := p.ledger.AddBlock(msg.Block); err != nil {
		return err
	}

	p.evHandler("gossip: onSyncBlock: block[%s] added", msg.Block.Hash)

	hash := msg.Block.Hash
	p.after(p.retryDelay, func(ctx context.Context) {
		if err := p.publish(ctx, SyncRequest{NodeID: p.nodeID, LatestHash: hash}); err != nil {
			p.evHandler("gossip: onSyncBlock: request next: ERROR: %s", err)
		}
	})

	return nil
}

// onSyncTxnRequest replies with the pending transactions of this node.
func (p *Protocol) onSyncTxnRequest(ctx context.Context, msg SyncTxnRequest) error {
	if msg.NodeID == p.nodeID {
		return nil
	}

	txs := p.pool.Copy()
	if len(txs) == 0 {
		return nil
	}

	p.evHandler("gossip: onSyncTxnRequest: node[%s] sending txs[%d]", msg.NodeID, len(txs))

	return p.publish(ctx, SyncTxn{NodeID: msg.NodeID, Transactions: txs})
}

// onSyncTxn adds the transactions sent to this node to the mempool.
func (p *Protocol) onSyncTxn(ctx context.Context, msg SyncTxn) error {
	if !p.accepts(msg.NodeID) {
		return nil
	}

	for _, tx := range msg.Transactions {
		p.pool.Add(tx)
	}

	p.evHandler("gossip: onSyncTxn: added txs[%d]", len(msg.Transactions))

	return nil
}

// onCreatedTransaction adds a transaction created on another node to the
// mempool.
func (p *Protocol) onCreatedTransaction(ctx context.Context, msg CreatedTransaction) error {
	if msg.NodeID == p.nodeID {
		return nil
	}

	n := p.pool.Add(msg.Transaction)

	p.evHandler("gossip: onCreatedTransaction: node[%s] tx[%s] mempool[%d]", msg.NodeID, msg.Transaction.ID, n)

	return nil
}

// onCreatedBlock pulls the announced block when the head does not reach it.
func (p *Protocol) onCreatedBlock(ctx context.Context, msg CreatedBlock) error {
	if msg.NodeID == p.nodeID {
		return nil
	}

	onChain, err := p.ledger.Contains(msg.Hash)
	if err != nil {
		return err
	}
	if onChain {
		return nil
	}

	p.evHandler("gossip: onCreatedBlock: node[%s] block[%s] requesting", msg.NodeID, msg.Hash)

	return p.publish(ctx, SyncRequest{NodeID: p.nodeID, LatestHash: p.ledger.LatestHash()})
}
