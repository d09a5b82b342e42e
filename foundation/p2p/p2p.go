// Package p2p provides the libp2p host used by nodes to exchange messages
// over gossipsub topics.
package p2p

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	ma "github.com/multiformats/go-multiaddr"
)

const (
	maxMessageSize = 4 << 20 // Blocks travel whole in a single message.
	dialTimeout    = 10 * time.Second
)

// EventHandler defines a function that is called when events
// occur in the network.
type EventHandler func(v string, args ...any)

// Config represents the settings for the libp2p host.
type Config struct {
	ListenAddrs []string
	Bootstrap   []string
	KeyFile     string
	MDNS        bool
	MDNSTag     string
	EvHandler   EventHandler
}

// Node is a libp2p host joined to the gossipsub network. It implements the
// transport used by the gossip protocol.
type Node struct {
	host      host.Host
	ps        *pubsub.PubSub
	mdns      mdns.Service
	evHandler EventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	topics    map[string]*pubsub.Topic
	onConnect []func(string)
}

// New constructs the host, joins gossipsub and dials the bootstrap peers.
func New(cfg Config) (*Node, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	opts := []libp2p.Option{
		libp2p.ListenAddrStrings(cfg.ListenAddrs...),
	}

	if cfg.KeyFile != "" {
		privKey, err := LoadIdentity(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.Identity(privKey))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create libp2p host: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ps, err := pubsub.NewGossipSub(ctx, h, pubsub.WithMaxMessageSize(maxMessageSize))
	if err != nil {
		cancel()
		h.Close()
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	n := Node{
		host:      h,
		ps:        ps,
		evHandler: ev,
		ctx:       ctx,
		cancel:    cancel,
		topics:    make(map[string]*pubsub.Topic),
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			go n.peerConnected(c.RemotePeer().String())
		},
	})

	if cfg.MDNS {
		tag := cfg.MDNSTag
		if tag == "" {
			tag = "ledger-mdns"
		}

		n.mdns = mdns.NewMdnsService(h, tag, &n)
		if err := n.mdns.Start(); err != nil {
			n.Close()
			return nil, fmt.Errorf("failed to start mdns: %w", err)
		}
	}

	for _, addr := range cfg.Bootstrap {
		dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
		if err := n.Dial(dialCtx, addr); err != nil {
			ev("p2p: New: bootstrap[%s]: ERROR: %s", addr, err)
		}
		dialCancel()
	}

	for _, addr := range n.Addrs() {
		ev("p2p: New: listening[%s]", addr)
	}

	return &n, nil
}

// ID returns the peer id of the host.
func (n *Node) ID() string {
	return n.host.ID().String()
}

// Addrs returns the full multiaddrs other nodes can bootstrap from.
func (n *Node) Addrs() []string {
	var addrs []string
	for _, addr := range n.host.Addrs() {
		addrs = append(addrs, fmt.Sprintf("%s/p2p/%s", addr, n.host.ID()))
	}

	return addrs
}

// Dial connects to the peer at the full multiaddr.
func (n *Node) Dial(ctx context.Context, addr string) error {
	maddr, err := ma.NewMultiaddr(addr)
	if err != nil {
		return fmt.Errorf("parsing multiaddr: %w", err)
	}

	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return fmt.Errorf("parsing peer address: %w", err)
	}

	return n.host.Connect(ctx, *info)
}

// Publish sends the data to the topic.
func (n *Node) Publish(ctx context.Context, topic string, data []byte) error {
	t, err := n.topic(topic)
	if err != nil {
		return err
	}

	return t.Publish(ctx, data)
}

// Subscribe starts a goroutine that hands the data of every message
// received on the topic to the function. Messages from this host are
// skipped.
func (n *Node) Subscribe(topic string, fn func(data []byte)) error {
	t, err := n.topic(topic)
	if err != nil {
		return err
	}

	sub, err := t.Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer sub.Cancel()

		for {
			msg, err := sub.Next(n.ctx)
			if err != nil {
				if n.ctx.Err() != nil {
					return
				}
				n.evHandler("p2p: subscribe: %s: ERROR: %s", topic, err)
				continue
			}

			if msg.ReceivedFrom == n.host.ID() {
				continue
			}

			fn(msg.Data)
		}
	}()

	return nil
}

// OnPeerConnect registers the function to be told about connected peers.
func (n *Node) OnPeerConnect(fn func(peerID string)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.onConnect = append(n.onConnect, fn)
}

// HandlePeerFound connects to peers discovered through mDNS.
func (n *Node) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.host.ID() {
		return
	}

	n.evHandler("p2p: HandlePeerFound: peer[%s]", info.ID)

	if err := n.host.Connect(n.ctx, info); err != nil {
		n.evHandler("p2p: HandlePeerFound: peer[%s]: ERROR: %s", info.ID, err)
	}
}

// Close stops the subscriptions and shuts the host down.
func (n *Node) Close() error {
	n.cancel()

	if n.mdns != nil {
		n.mdns.Close()
	}

	n.wg.Wait()

	n.mu.Lock()
	for _, t := range n.topics {
		t.Close()
	}
	n.mu.Unlock()

	return n.host.Close()
}

// =============================================================================

// topic joins the topic once and returns the handle.
func (n *Node) topic(name string) (*pubsub.Topic, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, exists := n.topics[name]; exists {
		return t, nil
	}

	t, err := n.ps.Join(name)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", name, err)
	}
	n.topics[name] = t

	return t, nil
}

// peerConnected calls the connect functions with the peer id.
func (n *Node) peerConnected(peerID string) {
	n.mu.Lock()
	fns := n.onConnect
	n.mu.Unlock()

	n.evHandler("p2p: peerConnected: peer[%s]", peerID)

	for _, fn := range fns {
		fn(peerID)
	}
}

// =============================================================================

// LoadIdentity reads the host key from the file, generating and saving a
// new Ed25519 key when the file does not exist.
func LoadIdentity(path string) (crypto.PrivKey, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		privKey, err := crypto.UnmarshalPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal identity: %w", err)
		}
		return privKey, nil

	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading identity: %w", err)
	}

	privKey, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating identity: %w", err)
	}

	data, err = crypto.MarshalPrivateKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("marshal identity: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating identity folder: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("writing identity: %w", err)
	}

	return privKey, nil
}
