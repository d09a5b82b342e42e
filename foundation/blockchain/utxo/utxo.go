// Package utxo derives balances from the unspent transaction outputs found
// by scanning the chain and builds new transactions that spend them.
package utxo

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// Set of error variables for building transactions.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
)

// Iterator represents the behavior required to walk the chain from the
// newest block to the genesis block.
type Iterator interface {
	Next() (database.Block, error)
	Done() bool
}

// Ledger represents the chain the engine scans.
type Ledger interface {
	Iterator() *chain.Iterator
}

// Wallet represents the owner of the outputs being spent.
type Wallet interface {
	Address() string
}

// =============================================================================

// Output is a transaction output that has not been referenced by any input.
type Output struct {
	TxID        string          `json:"txId"`
	OutputIndex int             `json:"outputIndex"`
	Address     string          `json:"address"`
	Amount      decimal.Decimal `json:"amount"`
}

// Unspent is the set of unspent outputs for an address and their sum.
type Unspent struct {
	Outputs []Output        `json:"outputs"`
	Sum     decimal.Decimal `json:"sum"`
}

// ComputeUnspent scans the whole chain and returns the outputs paying the
// address that no input references. Outputs are ordered newest block
// first, then by transaction order and output index.
func ComputeUnspent(iter Iterator, address string) (Unspent, error) {
	txs, spent, err := scan(iter)
	if err != nil {
		return Unspent{}, err
	}

	unspent := Unspent{
		Outputs: []Output{},
		Sum:     decimal.Zero,
	}

	seen := make(map[outputKey]struct{})
	for _, tx := range txs {
		for idx, out := range tx.Outputs {
			if out.Address != address {
				continue
			}

			key := outputKey{txID: tx.ID, index: idx}
			if _, exists := spent[key]; exists {
				continue
			}
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}

			unspent.Outputs = append(unspent.Outputs, Output{
				TxID:        tx.ID,
				OutputIndex: idx,
				Address:     out.Address,
				Amount:      out.Amount,
			})
			unspent.Sum = unspent.Sum.Add(out.Amount)
		}
	}

	return unspent, nil
}

// Balance returns the sum of the unspent outputs for the address. An
// address that never received value has a zero balance.
func Balance(iter Iterator, address string) (decimal.Decimal, error) {
	unspent, err := ComputeUnspent(iter, address)
	if err != nil {
		return decimal.Zero, err
	}

	return unspent.Sum, nil
}

// Balances returns the balance of every address holding unspent outputs.
func Balances(iter Iterator) (map[string]decimal.Decimal, error) {
	txs, spent, err := scan(iter)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal)

	seen := make(map[outputKey]struct{})
	for _, tx := range txs {
		for idx, out := range tx.Outputs {
			key := outputKey{txID: tx.ID, index: idx}
			if _, exists := spent[key]; exists {
				continue
			}
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}

			balances[out.Address] = balances[out.Address].Add(out.Amount)
		}
	}

	return balances, nil
}

// BuildTransaction selects unspent outputs of the wallet in scan order
// until they cover the amount and returns a transaction paying the amount
// to the recipient. Any surplus is returned to the wallet as change.
func BuildTransaction(ledger Ledger, from Wallet, to string, amount decimal.Decimal) (database.Tx, error) {
	if !amount.IsPositive() {
		return database.Tx{}, ErrInvalidAmount
	}

	unspent, err := ComputeUnspent(ledger.Iterator(), from.Address())
	if err != nil {
		return database.Tx{}, fmt.Errorf("computing unspent outputs: %w", err)
	}

	if unspent.Sum.LessThan(amount) {
		return database.Tx{}, fmt.Errorf("%w: address[%s] balance[%s] amount[%s]", ErrInsufficientFunds, from.Address(), unspent.Sum, amount)
	}

	var inputs []database.TxInput
	selected := decimal.Zero
	for _, out := range unspent.Outputs {
		inputs = append(inputs, database.TxInput{TxID: out.TxID, OutputIndex: out.OutputIndex})
		selected = selected.Add(out.Amount)

		if selected.GreaterThanOrEqual(amount) {
			break
		}
	}

	outputs := []database.TxOutput{
		{Address: to, Amount: amount},
	}

	if change := selected.Sub(amount); change.IsPositive() {
		outputs = append(outputs, database.TxOutput{Address: from.Address(), Amount: change})
	}

	return database.NewTx(inputs, outputs), nil
}

// =============================================================================

// outputKey identifies a transaction output.
type outputKey struct {
	txID  string
	index int
}

// scan walks the entire chain once. It returns every transaction in visit
// order and the set of outputs referenced by any input. Both are required
// before any output can be classified since an output may be spent by a
// transaction in a newer or older block than the one being visited.
func scan(iter Iterator) ([]database.Tx, map[outputKey]struct{}, error) {
	var txs []database.Tx
	spent := make(map[outputKey]struct{})

	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			return nil, nil, fmt.Errorf("walking chain: %w", err)
		}

		for _, tx := range block.Transactions {
			for _, in := range tx.Inputs {
				spent[outputKey{txID: in.TxID, index: in.OutputIndex}] = struct{}{}
			}
			txs = append(txs, tx)
		}
	}

	return txs, spent, nil
}
