package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Genesis writes the genesis block described by the file to an empty
// storage.
func Genesis(w io.Writer, strg Storage, path string) error {
	g, err := genesis.Load(path)
	if err != nil {
		return err
	}

	_, block, err := chain.InitGenesis(strg, g.Address, g.Issuance, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Genesis: %s\n  Address: %s\n  Issuance: %s\n", block.Hash, g.Address, g.Issuance)

	return nil
}
