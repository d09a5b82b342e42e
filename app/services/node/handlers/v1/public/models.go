package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/shopspring/decimal"
)

type balance struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type balances struct {
	LatestHash  string    `json:"latest_hash"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []balance `json:"balances"`
}

type output struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
}

type input struct {
	TxID        string `json:"tx_id"`
	OutputIndex int    `json:"output_index"`
}

type tx struct {
	ID       string   `json:"id"`
	Coinbase bool     `json:"coinbase"`
	Inputs   []input  `json:"inputs"`
	Outputs  []output `json:"outputs"`
}

type block struct {
	Hash          string `json:"hash"`
	PrevBlockHash string `json:"prev_block_hash"`
	TimeStamp     int64  `json:"timestamp"`
	Transactions  []tx   `json:"transactions"`
}

type unspentOutput struct {
	TxID        string          `json:"tx_id"`
	OutputIndex int             `json:"output_index"`
	Amount      decimal.Decimal `json:"amount"`
}

type unspent struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Sum     decimal.Decimal `json:"sum"`
	Outputs []unspentOutput `json:"outputs"`
}

type sendTx struct {
	From     string          `json:"from" validate:"required"`
	Password string          `json:"password" validate:"required"`
	To       string          `json:"to" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
}

// =============================================================================

func toTx(dbTx database.Tx, ns *nameservice.NameService) tx {
	ins := make([]input, len(dbTx.Inputs))
	for i, in := range dbTx.Inputs {
		ins[i] = input{TxID: in.TxID, OutputIndex: in.OutputIndex}
	}

	outs := make([]output, len(dbTx.Outputs))
	for i, out := range dbTx.Outputs {
		outs[i] = output{Address: out.Address, Name: ns.Lookup(out.Address), Amount: out.Amount}
	}

	return tx{
		ID:       dbTx.ID,
		Coinbase: dbTx.IsCoinbase(),
		Inputs:   ins,
		Outputs:  outs,
	}
}

func toBlock(dbBlock database.Block, ns *nameservice.NameService) block {
	txs := make([]tx, len(dbBlock.Transactions))
	for i, dbTx := range dbBlock.Transactions {
		txs[i] = toTx(dbTx, ns)
	}

	return block{
		Hash:          dbBlock.Hash,
		PrevBlockHash: dbBlock.PrevBlockHash,
		TimeStamp:     dbBlock.TimeStamp,
		Transactions:  txs,
	}
}
