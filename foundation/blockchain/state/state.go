// Package state is the core API for the ledger and ties the chain, the
// mempool and the gossip protocol together for the node.
package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// defaultResyncInterval is used when the configuration leaves the resync
// interval unset.
const defaultResyncInterval = time.Minute

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, resyncing and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalStartMining()
	SignalShareTx(tx database.Tx)
}

// =============================================================================

// Config represents the configuration required to start the node.
type Config struct {
	Storage        database.Storage
	Genesis        *genesis.Genesis
	Transport      gossip.Transport
	KnownPeers     *peer.PeerSet
	SettleDelay    time.Duration
	RetryDelay     time.Duration
	ResyncInterval time.Duration
	AutoMine       int
	EvHandler      EventHandler
}

// State manages the chain, the mempool and the protocol of the node.
type State struct {
	evHandler      EventHandler
	resyncInterval time.Duration
	autoMine       int

	storage  database.Storage
	chain    *chain.Chain
	mempool  *mempool.Mempool
	protocol *gossip.Protocol

	Worker Worker
}

// New constructs the state of the node. When the storage is empty and
// genesis settings are provided the genesis block is written, otherwise the
// chain is opened as stored, possibly empty until peers provide blocks.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil || cfg.Transport == nil {
		return nil, errors.New("storage and transport are required")
	}

	ch, err := openChain(cfg, ev)
	if err != nil {
		return nil, err
	}

	mp := mempool.New()

	protocol, err := gossip.New(gossip.Config{
		Transport:   cfg.Transport,
		Ledger:      ch,
		Pool:        mp,
		KnownPeers:  cfg.KnownPeers,
		SettleDelay: cfg.SettleDelay,
		RetryDelay:  cfg.RetryDelay,
		EvHandler:   gossip.EventHandler(ev),
	})
	if err != nil {
		return nil, err
	}

	if err := protocol.Start(); err != nil {
		protocol.Shutdown()
		return nil, err
	}

	resyncInterval := cfg.ResyncInterval
	if resyncInterval <= 0 {
		resyncInterval = defaultResyncInterval
	}

	state := State{
		evHandler:      ev,
		resyncInterval: resyncInterval,
		autoMine:       cfg.AutoMine,

		storage:  cfg.Storage,
		chain:    ch,
		mempool:  mp,
		protocol: protocol,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down. The transport is owned by the
// caller and is not closed.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.protocol.Shutdown()

	if err := s.storage.Close(); err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}

	return nil
}

// =============================================================================

// openChain initializes or opens the chain held by the storage.
func openChain(cfg Config, ev EventHandler) (*chain.Chain, error) {
	empty, err := cfg.Storage.IsEmpty()
	if err != nil {
		return nil, err
	}

	if !empty || cfg.Genesis == nil {
		return chain.New(cfg.Storage, chain.EventHandler(ev))
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	ch, block, err := chain.InitGenesis(cfg.Storage, cfg.Genesis.Address, cfg.Genesis.Issuance, chain.EventHandler(ev))
	if err != nil {
		return nil, err
	}

	ev("state: openChain: genesis block[%s] address[%s] issuance[%s]", block.Hash, cfg.Genesis.Address, cfg.Genesis.Issuance)

	return ch, nil
}
