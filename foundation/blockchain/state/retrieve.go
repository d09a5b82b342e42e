package state

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
)

// RetrieveNodeID returns the id this node uses on the network.
func (s *State) RetrieveNodeID() string {
	return s.protocol.NodeID()
}

// RetrieveLatestHash returns the hash at the head of the chain.
func (s *State) RetrieveLatestHash() string {
	return s.chain.LatestHash()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.protocol.KnownPeers()
}

// RetrieveResyncInterval returns how often the node polls its peers.
func (s *State) RetrieveResyncInterval() time.Duration {
	return s.resyncInterval
}

// RetrieveStatus returns the status of this node.
func (s *State) RetrieveStatus() peer.Status {
	return peer.Status{
		NodeID:     s.RetrieveNodeID(),
		LatestHash: s.RetrieveLatestHash(),
		Mempool:    s.mempool.Count(),
		KnownPeers: s.RetrieveKnownPeers(),
	}
}
