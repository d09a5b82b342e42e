package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Blocks prints every block and its transactions from the head of the chain
// back to the genesis block.
func Blocks(w io.Writer, strg Storage) error {
	ch, err := chain.Open(strg, nil)
	if err != nil {
		return err
	}

	iter := ch.Iterator()
	for !iter.Done() {
		block, err := iter.Next()
		if err != nil {
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			return err
		}

		fmt.Fprintf(w, "Block: %s\n", block.Hash)
		fmt.Fprintf(w, "  Prev: %s\n", block.PrevBlockHash)
		fmt.Fprintf(w, "  Time: %s\n", time.UnixMilli(block.TimeStamp).UTC().Format(time.RFC3339))

		for _, tx := range block.Transactions {
			fmt.Fprintf(w, "  Tx: %s inputs[%d]\n", tx.ID, len(tx.Inputs))
			for i, out := range tx.Outputs {
				fmt.Fprintf(w, "    Out[%d]: %s %s\n", i, out.Address, out.Amount)
			}
		}
	}

	return nil
}
