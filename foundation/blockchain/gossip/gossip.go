// Package gossip implements the protocol nodes use to exchange blocks and
// pending transactions over a publish/subscribe transport until their
// chains converge.
package gossip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// Default delays used when the configuration leaves them unset.
const (
	DefaultSettleDelay = 2 * time.Second
	DefaultRetryDelay  = 2 * time.Second
)

// EventHandler defines a function that is called when events
// occur in the processing of messages.
type EventHandler func(v string, args ...any)

// Transport represents the behavior required to be implemented by any
// package providing publish/subscribe messaging between nodes. A node
// does not receive the messages it publishes.
type Transport interface {
	ID() string
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(topic string, fn func(data []byte)) error
	OnPeerConnect(fn func(peerID string))
}

// Ledger represents the chain the protocol reads and extends.
type Ledger interface {
	LatestHash() string
	FindNext(hash string) (database.Block, error)
	Contains(hash string) (bool, error)
	AddBlock(block database.Block) error
}

// Pool represents the pending transactions the protocol shares.
type Pool interface {
	Add(tx database.Tx) int
	Copy() []database.Tx
}

// Config represents the collaborators and settings for the protocol.
type Config struct {
	Transport   Transport
	Ledger      Ledger
	Pool        Pool
	KnownPeers  *peer.PeerSet
	SettleDelay time.Duration
	RetryDelay  time.Duration
	EvHandler   EventHandler
}

// =============================================================================

// Protocol handles the messages received from the transport and publishes
// the requests and replies that keep this node in sync with its peers.
type Protocol struct {
	nodeID      string
	transport   Transport
	ledger      Ledger
	pool        Pool
	knownPeers  *peer.PeerSet
	settleDelay time.Duration
	retryDelay  time.Duration
	evHandler   EventHandler
	handlers    map[Kind]handlerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	shut   bool
}

// New constructs the protocol. Call Start to begin receiving messages.
func New(cfg Config) (*Protocol, error) {
	if cfg.Transport == nil || cfg.Ledger == nil || cfg.Pool == nil {
		return nil, errors.New("transport, ledger and pool are required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	settleDelay := cfg.SettleDelay
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := Protocol{
		nodeID:      cfg.Transport.ID(),
		transport:   cfg.Transport,
		ledger:      cfg.Ledger,
		pool:        cfg.Pool,
		knownPeers:  knownPeers,
		settleDelay: settleDelay,
		retryDelay:  retryDelay,
		evHandler:   ev,
		ctx:         ctx,
		cancel:      cancel,
	}

	p.handlers = map[Kind]handlerFunc{
		KindSyncRequest:        handle(p.onSyncRequest),
		KindSyncBlock:          handle(p.onSyncBlock),
		KindSyncTxnRequest:     handle(p.onSyncTxnRequest),
		KindSyncTxn:            handle(p.onSyncTxn),
		KindCreatedTransaction: handle(p.onCreatedTransaction),
		KindCreatedBlock:       handle(p.onCreatedBlock),
	}

	return &p, nil
}

// Start subscribes to every topic and starts reacting to peer connections.
func (p *Protocol) Start() error {
	for _, kind := range Kinds {
		if err := p.transport.Subscribe(string(kind), func(data []byte) {
			p.dispatch(kind, data)
		}); err != nil {
			return fmt.Errorf("subscribe %s: %w", kind, err)
		}
	}

	p.transport.OnPeerConnect(p.onPeerConnect)

	p.evHandler("gossip: Start: node[%s] subscribed", p.nodeID)

	return nil
}

// Shutdown stops any pending delayed request and waits for them to finish.
func (p *Protocol) Shutdown() {
	p.evHandler("gossip: shutdown: started")
	defer p.evHandler("gossip: shutdown: completed")

	p.mu.Lock()
	p.shut = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// NodeID returns the id this node uses in messages.
func (p *Protocol) NodeID() string {
	return p.nodeID
}

// KnownPeers returns the peers this node has connected with.
func (p *Protocol) KnownPeers() []peer.Peer {
	return p.knownPeers.Copy(p.nodeID)
}

// =============================================================================

// Sync asks the peers for the next block after this node's head and for
// their pending transactions.
func (p *Protocol) Sync(ctx context.Context) error {
	p.evHandler("gossip: Sync: latestHash[%s]", p.ledger.LatestHash())

	return errors.Join(
		p.publish(ctx, SyncRequest{NodeID: p.nodeID, LatestHash: p.ledger.LatestHash()}),
		p.publish(ctx, SyncTxnRequest{NodeID: p.nodeID}),
	)
}

// PublishTransaction announces a transaction created on this node.
func (p *Protocol) PublishTransaction(ctx context.Context, tx database.Tx) error {
	p.evHandler("gossip: PublishTransaction: tx[%s]", tx.ID)

	return p.publish(ctx, CreatedTransaction{NodeID: p.nodeID, Transaction: tx})
}

// PublishBlock announces a block mined on this node. Peers pull the block
// with a SyncRequest when their head differs.
func (p *Protocol) PublishBlock(ctx context.Context, block database.Block) error {
	p.evHandler("gossip: PublishBlock: block[%s]", block.Hash)

	return p.publish(ctx, CreatedBlock{NodeID: p.nodeID, Hash: block.Hash})
}

// =============================================================================

// onPeerConnect records the peer and syncs once the connection settled.
func (p *Protocol) onPeerConnect(peerID string) {
	if p.knownPeers.Add(peer.New(peerID)) {
		p.evHandler("gossip: onPeerConnect: adding peer[%s]", peerID)
	}

	p.after(p.settleDelay, func(ctx context.Context) {
		if err := p.Sync(ctx); err != nil {
			p.evHandler("gossip: onPeerConnect: sync: ERROR: %s", err)
		}
	})
}

// dispatch runs the handler for the kind. Handler errors are logged and
// never stop the node.
func (p *Protocol) dispatch(kind Kind, data []byte) {
	if p.isShutdown() {
		return
	}

	h, exists := p.handlers[kind]
	if !exists {
		p.evHandler("gossip: dispatch: unknown kind[%s]", kind)
		return
	}

	if err := h(p.ctx, data); err != nil {
		p.evHandler("gossip: dispatch: %s: ERROR: %s", kind, err)
	}
}

// publish encodes the message and publishes it on its topic.
func (p *Protocol) publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}

	if err := p.transport.Publish(ctx, string(msg.Kind()), data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Kind(), err)
	}

	return nil
}

// after runs the function once the delay expired unless the protocol is
// shut down first.
func (p *Protocol) after(delay time.Duration, fn func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shut {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		t := time.NewTimer(delay)
		defer t.Stop()

		select {
		case <-t.C:
			fn(p.ctx)
		case <-p.ctx.Done():
		}
	}()
}

// isShutdown is used to test if a shutdown has been signaled.
func (p *Protocol) isShutdown() bool {
	select {
	case <-p.ctx.Done():
		return true
	default:
		return false
	}
}

// accepts reports whether a reply addressed to nodeID is for this node.
func (p *Protocol) accepts(nodeID string) bool {
	return nodeID == p.nodeID || nodeID == Broadcast
}
