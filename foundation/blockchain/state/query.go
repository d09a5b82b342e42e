package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/shopspring/decimal"
)

// QueryBalance returns the spendable balance of the address.
func (s *State) QueryBalance(address string) (decimal.Decimal, error) {
	return utxo.Balance(s.chain.Iterator(), address)
}

// QueryBalances returns the balance of every address holding unspent
// outputs.
func (s *State) QueryBalances() (map[string]decimal.Decimal, error) {
	return utxo.Balances(s.chain.Iterator())
}

// QueryUnspent returns the unspent outputs owned by the address.
func (s *State) QueryUnspent(address string) (utxo.Unspent, error) {
	return utxo.ComputeUnspent(s.chain.Iterator(), address)
}

// QueryBlocks returns the blocks of the chain, newest first.
func (s *State) QueryBlocks() ([]database.Block, error) {
	return s.chain.Blocks()
}

// QueryBlockByHash returns the stored block with the hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	return s.chain.FindBlock(hash)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}
