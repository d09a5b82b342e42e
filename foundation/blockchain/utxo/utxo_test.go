package utxo_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
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
	addr2 = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"
)

type wallet string

func (w wallet) Address() string { return string(w) }

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func newChain(t *testing.T) *chain.Chain {
	t.Helper()

	c, _, err := chain.InitGenesis(memory.New(), addr0, dec(100), nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to init the genesis block: %v", failed, err)
	}

	return c
}

func send(t *testing.T, c *chain.Chain, from string, to string, amount int64) database.Tx {
	t.Helper()

	tx, err := utxo.BuildTransaction(c, wallet(from), to, dec(amount))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
	}

	if _, err := c.Mine([]database.Tx{tx}); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the transaction: %v", failed, err)
	}

	return tx
}

// =============================================================================

func Test_Balances(t *testing.T) {
	type transfer struct {
		from   string
		to     string
		amount int64
	}

	type table struct {
		name      string
		transfers []transfer
		final     map[string]int64
	}

	tt := []table{
		{
			name:  "genesis",
			final: map[string]int64{addr0: 100, addr1: 0},
		},
		{
			name:      "single",
			transfers: []transfer{{addr0, addr1, 30}},
			final:     map[string]int64{addr0: 70, addr1: 30},
		},
		{
			name:      "exact",
			transfers: []transfer{{addr0, addr1, 100}},
			final:     map[string]int64{addr0: 0, addr1: 100},
		},
		{
			name: "chained",
			transfers: []transfer{
				{addr0, addr1, 30},
				{addr1, addr2, 10},
				{addr0, addr2, 50},
			},
			final: map[string]int64{addr0: 20, addr1: 20, addr2: 60},
		},
	}

	t.Log("Given the need to derive balances from unspent outputs.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transfers.", testID)
			{
				f := func(t *testing.T) {
					c := newChain(t)

					for _, tr := range tst.transfers {
						send(t, c, tr.from, tr.to, tr.amount)
					}

					for addr, exp := range tst.final {
						got, err := utxo.Balance(c.Iterator(), addr)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to compute the balance: %v", failed, testID, err)
						}

						if !got.Equal(dec(exp)) {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, exp)
							t.Fatalf("\t%s\tTest %d:\tShould have the right balance for %s.", failed, testID, addr)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould have the right balances.", success, testID)

					all, err := utxo.Balances(c.Iterator())
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to compute all balances: %v", failed, testID, err)
					}

					total := decimal.Zero
					for _, b := range all {
						total = total.Add(b)
					}
					if !total.Equal(dec(100)) {
						t.Fatalf("\t%s\tTest %d:\tShould conserve the issued value, got %s.", failed, testID, total)
					}
					t.Logf("\t%s\tTest %d:\tShould conserve the issued value.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Unspent(t *testing.T) {
	c := newChain(t)
	tx := send(t, c, addr0, addr1, 30)

	t.Log("Given the need to list unspent outputs.")
	{
		unspent, err := utxo.ComputeUnspent(c.Iterator(), addr0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute unspent outputs: %v", failed, err)
		}

		if len(unspent.Outputs) != 1 || unspent.Outputs[0].TxID != tx.ID || unspent.Outputs[0].OutputIndex != 1 {
			t.Fatalf("\t%s\tShould only have the change output: %+v", failed, unspent.Outputs)
		}
		t.Logf("\t%s\tShould only have the change output.", success)

		unspent, err = utxo.ComputeUnspent(c.Iterator(), "0x0000000000000000000000000000000000000001")
		if err != nil || len(unspent.Outputs) != 0 || !unspent.Sum.IsZero() {
			t.Fatalf("\t%s\tShould have nothing for an unknown address: %v", failed, err)
		}
		t.Logf("\t%s\tShould have nothing for an unknown address.", success)
	}
}

func Test_DuplicateTransaction(t *testing.T) {
	c := newChain(t)

	tx, err := utxo.BuildTransaction(c, wallet(addr0), addr1, dec(30))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
	}

	t.Log("Given the need to count a transaction mined twice once.")
	{
		for range 2 {
			if _, err := c.Mine([]database.Tx{tx}); err != nil {
				t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
			}
		}

		got, err := utxo.Balance(c.Iterator(), addr1)
		if err != nil || !got.Equal(dec(30)) {
			t.Fatalf("\t%s\tShould count the output once, got %s: %v", failed, got, err)
		}
		t.Logf("\t%s\tShould count the output once.", success)
	}
}

func Test_BuildTransaction(t *testing.T) {
	c := newChain(t)

	t.Log("Given the need to reject transactions that can't be funded.")
	{
		_, err := utxo.BuildTransaction(c, wallet(addr0), addr1, dec(101))
		if !errors.Is(err, utxo.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail with insufficient funds: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail with insufficient funds.", success)

		_, err = utxo.BuildTransaction(c, wallet(addr1), addr0, dec(1))
		if !errors.Is(err, utxo.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail for an empty wallet: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail for an empty wallet.", success)

		for _, amount := range []int64{0, -5} {
			_, err = utxo.BuildTransaction(c, wallet(addr0), addr1, dec(amount))
			if !errors.Is(err, utxo.ErrInvalidAmount) {
				t.Fatalf("\t%s\tShould reject the amount %d: %v", failed, amount, err)
			}
		}
		t.Logf("\t%s\tShould reject amounts that are not positive.", success)
	}

	t.Log("Given the need to select outputs and return change.")
	{
		send(t, c, addr0, addr1, 10)
		send(t, c, addr0, addr1, 20)

		// addr1 holds a 20 output in the newest block and a 10 output before it.
		tx, err := utxo.BuildTransaction(c, wallet(addr1), addr2, dec(25))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}

		if len(tx.Inputs) != 2 {
			t.Fatalf("\t%s\tShould select both outputs, got %d.", failed, len(tx.Inputs))
		}
		t.Logf("\t%s\tShould select outputs until the amount is covered.", success)

		if len(tx.Outputs) != 2 || !tx.Outputs[0].Amount.Equal(dec(25)) || !tx.Outputs[1].Amount.Equal(dec(5)) || tx.Outputs[1].Address != addr1 {
			t.Fatalf("\t%s\tShould pay the amount and return the change: %+v", failed, tx.Outputs)
		}
		t.Logf("\t%s\tShould pay the amount and return the change.", success)

		tx, err = utxo.BuildTransaction(c, wallet(addr1), addr2, dec(20))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}

		if len(tx.Inputs) != 1 || len(tx.Outputs) != 1 {
			t.Fatalf("\t%s\tShould not create change for an exact match: %+v", failed, tx)
		}
		t.Logf("\t%s\tShould not create change for an exact match.", success)
	}
}

func Test_DecimalAmounts(t *testing.T) {
	c := newChain(t)

	amount := decimal.RequireFromString("0.1")
	for range 3 {
		tx, err := utxo.BuildTransaction(c, wallet(addr0), addr1, amount)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transaction: %v", failed, err)
		}
		if _, err := c.Mine([]database.Tx{tx}); err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
		}
	}

	got, err := utxo.Balance(c.Iterator(), addr1)
	if err != nil || !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("\t%s\tShould add fractional amounts exactly, got %s: %v", failed, got, err)
	}
	t.Logf("\t%s\tShould add fractional amounts exactly.", success)
}
