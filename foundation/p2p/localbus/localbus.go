// Package localbus provides an in-process publish/subscribe transport. It
// runs several nodes inside one process, for tests and local networks.
package localbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// inboxSize is the number of messages a node can have queued. Messages
// published to a full inbox are dropped.
const inboxSize = 1024

var (
	// ErrClosed is returned when publishing through a closed node.
	ErrClosed = errors.New("node closed")

	// ErrInboxFull is returned when a peer's inbox was full and the
	// message was dropped for that peer.
	ErrInboxFull = errors.New("inbox full")
)

// Bus connects the nodes that joined it. Every message a node publishes is
// delivered to every other connected node.
type Bus struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// New constructs an empty bus.
func New() *Bus {
	return &Bus{
		nodes: make(map[string]*Node),
	}
}

// Node constructs a node with the specified id. The node receives nothing
// until Connect is called.
func (b *Bus) Node(id string) *Node {
	n := Node{
		bus:   b,
		id:    id,
		subs:  make(map[string][]func([]byte)),
		inbox: make(chan envelope, inboxSize),
		done:  make(chan struct{}),
	}

	n.wg.Add(1)
	go n.deliver()

	return &n
}

// =============================================================================

type envelope struct {
	topic string
	data  []byte
}

// Node is a member of the bus. It implements the transport used by the
// gossip protocol.
type Node struct {
	bus   *Bus
	id    string
	inbox chan envelope
	done  chan struct{}
	wg    sync.WaitGroup

	mu        sync.RWMutex
	subs      map[string][]func([]byte)
	onConnect []func(string)
	closed    bool
}

// ID returns the id of the node.
func (n *Node) ID() string {
	return n.id
}

// Connect attaches the node to the bus. The node and every node already
// connected are told about each other.
func (n *Node) Connect() {
	n.bus.mu.Lock()
	peers := make([]*Node, 0, len(n.bus.nodes))
	for _, peer := range n.bus.nodes {
		peers = append(peers, peer)
	}
	n.bus.nodes[n.id] = n
	n.bus.mu.Unlock()

	for _, peer := range peers {
		peer.peerConnected(n.id)
		n.peerConnected(peer.id)
	}
}

// Publish queues the data for every other connected node. Publish never
// blocks, it runs on the delivery goroutine when handlers reply. A peer
// whose inbox is full misses the message and ErrInboxFull is returned
// after the other peers were served.
func (n *Node) Publish(ctx context.Context, topic string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()

	if closed {
		return ErrClosed
	}

	n.bus.mu.RLock()
	peers := make([]*Node, 0, len(n.bus.nodes))
	for id, peer := range n.bus.nodes {
		if id != n.id {
			peers = append(peers, peer)
		}
	}
	n.bus.mu.RUnlock()

	cpy := make([]byte, len(data))
	copy(cpy, data)

	var dropped []string
	for _, peer := range peers {
		select {
		case peer.inbox <- envelope{topic: topic, data: cpy}:
		case <-peer.done:
		default:
			dropped = append(dropped, peer.id)
		}
	}

	if len(dropped) > 0 {
		return fmt.Errorf("topic[%s] peers%v: %w", topic, dropped, ErrInboxFull)
	}

	return nil
}

// Subscribe registers the function to receive the data published on the
// topic.
func (n *Node) Subscribe(topic string, fn func(data []byte)) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}

	n.subs[topic] = append(n.subs[topic], fn)

	return nil
}

// OnPeerConnect registers the function to be told about connected peers.
func (n *Node) OnPeerConnect(fn func(peerID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onConnect = append(n.onConnect, fn)
}

// Close detaches the node from the bus and stops delivery.
func (n *Node) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	n.bus.mu.Lock()
	delete(n.bus.nodes, n.id)
	n.bus.mu.Unlock()

	close(n.done)
	n.wg.Wait()

	return nil
}

// =============================================================================

// deliver calls the subscribers of each queued message in arrival order.
func (n *Node) deliver() {
	defer n.wg.Done()

	for {
		select {
		case env := <-n.inbox:
			n.mu.RLock()
			fns := n.subs[env.topic]
			n.mu.RUnlock()

			for _, fn := range fns {
				fn(env.data)
			}

		case <-n.done:
			return
		}
	}
}

// peerConnected calls the connect functions with the peer id.
func (n *Node) peerConnected(peerID string) {
	n.mu.RLock()
	fns := n.onConnect
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(peerID)
	}
}
