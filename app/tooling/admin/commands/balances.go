package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/shopspring/decimal"
)

// Balances prints the balance of the address or of every address holding
// unspent outputs.
func Balances(w io.Writer, strg Storage, address string) error {
	ch, err := chain.Open(strg, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "LatestHash: %s\n\n", ch.LatestHash())

	if address != "" {
		address, err := database.ToAddress(address)
		if err != nil {
			return err
		}

		bal, err := utxo.Balance(ch.Iterator(), address)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "Address: %s  Balance: %s\n", address, bal)
		return nil
	}

	bals, err := utxo.Balances(ch.Iterator())
	if err != nil {
		return err
	}

	addresses := make([]string, 0, len(bals))
	for address := range bals {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	total := decimal.Zero
	for _, address := range addresses {
		fmt.Fprintf(w, "Address: %s  Balance: %s\n", address, bals[address])
		total = total.Add(bals[address])
	}
	fmt.Fprintf(w, "\nTotal: %s\n", total)

	return nil
}
