package database_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	addr0 = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	addr1 = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_BlockHash(t *testing.T) {
	genesis := database.NewGenesisBlock(addr0, decimal.NewFromInt(100))

	spend := database.NewTx(
		[]database.TxInput{{TxID: genesis.Transactions[0].ID, OutputIndex: 0}},
		[]database.TxOutput{
			{Address: addr1, Amount: decimal.NewFromInt(30)},
			{Address: addr0, Amount: decimal.NewFromInt(70)},
		},
	)

	type table struct {
		name  string
		block database.Block
	}

	tt := []table{
		{name: "genesis", block: genesis},
		{name: "spend", block: database.NewBlock(genesis.Hash, []database.Tx{spend})},
		{name: "empty", block: database.NewBlock(genesis.Hash, nil)},
	}

	t.Log("Given the need to validate block hashing survives serialization.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
			{
				f := func(t *testing.T) {
					if err := tst.block.VerifyHash(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould have a valid hash on construction: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould have a valid hash on construction.", success, testID)

					data, err := json.Marshal(tst.block)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to marshal the block: %v", failed, testID, err)
					}

					var got database.Block
					if err := json.Unmarshal(data, &got); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the block: %v", failed, testID, err)
					}

					if got.ComputeHash() != tst.block.Hash {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got.ComputeHash())
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.block.Hash)
						t.Fatalf("\t%s\tTest %d:\tShould recompute the same hash after decoding.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould recompute the same hash after decoding.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_BlockJSONNames(t *testing.T) {
	block := database.NewGenesisBlock(addr0, decimal.NewFromInt(100))

	data, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to marshal the block: %v", failed, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("\t%s\tShould be able to unmarshal into a document: %v", failed, err)
	}

	for _, key := range []string{"hash", "prevBlockHash", "timestamp", "data"} {
		if _, exists := doc[key]; !exists {
			t.Fatalf("\t%s\tShould have field %q in the document.", failed, key)
		}
	}
	t.Logf("\t%s\tShould have the persisted field names.", success)

	txs := doc["data"].([]any)
	tx := txs[0].(map[string]any)
	for _, key := range []string{"id", "inputs", "outputs"} {
		if _, exists := tx[key]; !exists {
			t.Fatalf("\t%s\tShould have transaction field %q in the document.", failed, key)
		}
	}
	t.Logf("\t%s\tShould have the persisted transaction field names.", success)
}

func Test_TamperedBlock(t *testing.T) {
	block := database.NewGenesisBlock(addr0, decimal.NewFromInt(100))
	block.Transactions[0].Outputs[0].Amount = decimal.NewFromInt(1000)

	if err := block.VerifyHash(); !errors.Is(err, database.ErrInvalidHash) {
		t.Fatalf("\t%s\tShould detect a tampered block: %v", failed, err)
	}
	t.Logf("\t%s\tShould detect a tampered block.", success)

	if err := block.Transactions[0].Validate(); !errors.Is(err, database.ErrInvalidHash) {
		t.Fatalf("\t%s\tShould detect a tampered transaction: %v", failed, err)
	}
	t.Logf("\t%s\tShould detect a tampered transaction.", success)
}

func Test_Address(t *testing.T) {
	type table struct {
		name  string
		value string
		valid bool
	}

	tt := []table{
		{name: "checksum", value: addr0, valid: true},
		{name: "lower", value: "0xf01813e4b85e178a83e29b8e7bf26bd830a25f32", valid: true},
		{name: "short", value: "0xF01813E4", valid: false},
		{name: "name", value: "kennedy", valid: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			got, err := database.ToAddress(tst.value)
			switch {
			case tst.valid && err != nil:
				t.Fatalf("\t%s\tTest %s:\tShould accept the address: %v", failed, tst.name, err)
			case tst.valid && got != addr0:
				t.Fatalf("\t%s\tTest %s:\tShould return the checksum form, got %s", failed, tst.name, got)
			case !tst.valid && !errors.Is(err, database.ErrInvalidAddress):
				t.Fatalf("\t%s\tTest %s:\tShould reject the address.", failed, tst.name)
			}
			t.Logf("\t%s\tTest %s:\tShould validate the address.", success, tst.name)
		}

		t.Run(tst.name, f)
	}
}
