package database

import (
	"errors"

	"github.com/shopspring/decimal"
)

// TxInput references an output of a previous transaction that is being spent.
type TxInput struct {
	TxID        string `json:"txId"`
	OutputIndex int    `json:"outputIndex"`
}

// TxOutput assigns an amount of value to an address.
type TxOutput struct {
	Address string          `json:"address"`
	Amount  decimal.Decimal `json:"amount"`
}

// Tx is the transactional information between two parties. The ID is the
// hash of the inputs and outputs.
type Tx struct {
	ID      string     `json:"id"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// NewTx constructs a transaction and computes its id.
func NewTx(inputs []TxInput, outputs []TxOutput) Tx {
	tx := Tx{
		Inputs:  inputs,
		Outputs: outputs,
	}
	tx.ID = tx.ComputeID()

	return tx
}

// NewCoinbaseTx constructs a transaction with no inputs that credits the
// address with the amount.
func NewCoinbaseTx(address string, amount decimal.Decimal) Tx {
	return NewTx(nil, []TxOutput{{Address: address, Amount: amount}})
}

// ComputeID returns the hash of the transaction content.
func (tx Tx) ComputeID() string {
	inputs := tx.Inputs
	if inputs == nil {
		inputs = []TxInput{}
	}

	outputs := tx.Outputs
	if outputs == nil {
		outputs = []TxOutput{}
	}

	content := struct {
		Inputs  []TxInput  `json:"inputs"`
		Outputs []TxOutput `json:"outputs"`
	}{
		Inputs:  inputs,
		Outputs: outputs,
	}

	return Hash(content)
}

// Validate checks the transaction is internally consistent. No signatures
// are involved, only the shape and the id.
func (tx Tx) Validate() error {
	if len(tx.Outputs) == 0 {
		return errors.New("transaction has no outputs")
	}

	for _, out := range tx.Outputs {
		if out.Address == "" {
			return errors.New("transaction output has no address")
		}
		if !out.Amount.IsPositive() {
			return errors.New("transaction output amount must be positive")
		}
	}

	if tx.ID != tx.ComputeID() {
		return ErrInvalidHash
	}

	return nil
}

// IsCoinbase reports whether the transaction mints value.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// OutputTotal returns the sum of all outputs.
func (tx Tx) OutputTotal() decimal.Decimal {
	total := decimal.Zero
	for _, out := range tx.Outputs {
		total = total.Add(out.Amount)
	}

	return total
}
