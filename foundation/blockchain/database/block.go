package database

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// ErrInvalidHash is returned when a block or transaction hash does not match
// its content.
var ErrInvalidHash = errors.New("hash does not match content")

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// =============================================================================

// Block represents a group of transactions batched together and linked to
// the previous block by hash. The genesis block has no previous hash.
type Block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prevBlockHash"`
	TimeStamp     int64  `json:"timestamp"`
	Transactions  []Tx   `json:"data"`
}

// NewBlock constructs a block on top of the specified previous hash and
// computes its hash.
func NewBlock(prevBlockHash string, txs []Tx) Block {
	if txs == nil {
		txs = []Tx{}
	}

	b := Block{
		PrevBlockHash: prevBlockHash,
		TimeStamp:     time.Now().UTC().UnixMilli(),
		Transactions:  txs,
	}
	b.Hash = b.ComputeHash()

	return b
}

// NewGenesisBlock constructs the first block of a chain. It holds a single
// coinbase transaction that issues the amount to the address.
func NewGenesisBlock(address string, issuance decimal.Decimal) Block {
	return NewBlock("", []Tx{NewCoinbaseTx(address, issuance)})
}

// ComputeHash returns the hash of the block content. The stored hash field
// is not part of the hashed content.
func (b Block) ComputeHash() string {
	txs := b.Transactions
	if txs == nil {
		txs = []Tx{}
	}

	content := struct {
		PrevBlockHash string `json:"prevBlockHash"`
		TimeStamp     int64  `json:"timestamp"`
		Transactions  []Tx   `json:"data"`
	}{
		PrevBlockHash: b.PrevBlockHash,
		TimeStamp:     b.TimeStamp,
		Transactions:  txs,
	}

	return Hash(content)
}

// VerifyHash validates the stored hash matches the block content.
func (b Block) VerifyHash() error {
	if b.Hash == "" || b.Hash != b.ComputeHash() {
		return ErrInvalidHash
	}

	return nil
}

// IsGenesis reports whether this is the first block of a chain.
func (b Block) IsGenesis() bool {
	return b.PrevBlockHash == ""
}

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}
