package gossip

import "github.com/ardanlabs/ledger/foundation/blockchain/database"

// Kind names a message type and the topic it is published on.
type Kind string

// Set of message kinds exchanged between nodes.
const (
	KindSyncRequest        Kind = "SYNC_REQUEST"
	KindSyncBlock          Kind = "SYNC_BLOCK"
	KindSyncTxnRequest     Kind = "SYNC_TRXN_REQUEST"
	KindSyncTxn            Kind = "SYNC_TRXN"
	KindCreatedTransaction Kind = "CREATED_TRANSACTION"
	KindCreatedBlock       Kind = "CREATED_BLOCK"
)

// Kinds lists every message kind a node subscribes to.
var Kinds = []Kind{
	KindSyncRequest,
	KindSyncBlock,
	KindSyncTxnRequest,
	KindSyncTxn,
	KindCreatedTransaction,
	KindCreatedBlock,
}

// Broadcast addresses a reply to every node.
const Broadcast = "broadcast"

// Message is implemented by every message published on the network.
type Message interface {
	Kind() Kind
}

// =============================================================================

// SyncRequest asks peers for the block that follows LatestHash. NodeID is
// the requesting node.
type SyncRequest struct {
	NodeID     string `json:"nodeId"`
	LatestHash string `json:"latestHash"`
}

// Kind implements the Message interface.
func (SyncRequest) Kind() Kind { return KindSyncRequest }

// SyncBlock answers a SyncRequest. NodeID is the node being answered.
type SyncBlock struct {
	NodeID string         `json:"nodeId"`
	Block  database.Block `json:"block"`
}

// Kind implements the Message interface.
func (SyncBlock) Kind() Kind { return KindSyncBlock }

// SyncTxnRequest asks peers for their pending transactions. NodeID is the
// requesting node.
type SyncTxnRequest struct {
	NodeID string `json:"nodeId"`
}

// Kind implements the Message interface.
func (SyncTxnRequest) Kind() Kind { return KindSyncTxnRequest }

// SyncTxn answers a SyncTxnRequest. NodeID is the node being answered.
type SyncTxn struct {
	NodeID       string        `json:"nodeId"`
	Transactions []database.Tx `json:"transactions"`
}

// Kind implements the Message interface.
func (SyncTxn) Kind() Kind { return KindSyncTxn }

// CreatedTransaction announces a transaction created on NodeID.
type CreatedTransaction struct {
	NodeID      string      `json:"nodeId"`
	Transaction database.Tx `json:"transaction"`
}

// Kind implements the Message interface.
func (CreatedTransaction) Kind() Kind { return KindCreatedTransaction }

// CreatedBlock announces a block mined on NodeID.
type CreatedBlock struct {
	NodeID string `json:"nodeId"`
	Hash   string `json:"hash"`
}

// Kind implements the Message interface.
func (CreatedBlock) Kind() Kind { return KindCreatedBlock }
