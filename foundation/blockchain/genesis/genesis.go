// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date     time.Time       `json:"date"`
	Address  string          `json:"address"`  // Receives the issuance in the first block.
	Issuance decimal.Decimal `json:"issuance"` // Coins created by the genesis transaction.
}

// Validate checks the settings can create a genesis block and puts the
// address in its checksum form.
func (g *Genesis) Validate() error {
	address, err := database.ToAddress(g.Address)
	if err != nil {
		return err
	}
	g.Address = address

	if !g.Issuance.IsPositive() {
		return errors.New("issuance must be positive")
	}

	return nil
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis: %w", err)
	}

	return genesis, nil
}
