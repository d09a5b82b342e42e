package mempool_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func tx(to string, amount int64) database.Tx {
	return database.NewCoinbaseTx(to, decimal.NewFromInt(amount))
}

func TestCRUD(t *testing.T) {
	type table struct {
		name string
		txs  []database.Tx
	}

	tt := []table{
		{
			name: "basic",
			txs: []database.Tx{
				tx("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 10),
				tx("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", 50),
				tx("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76", 100),
				tx("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9", 10),
			},
		},
		{
			name: "duplicates",
			txs: []database.Tx{
				tx("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 10),
				tx("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 10),
			},
		},
	}

	t.Log("Given the need to validate mempool api.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a set of transaction.", testID)
			{
				f := func(t *testing.T) {
					mp := mempool.New()

					for i, tx := range tst.txs {
						if n := mp.Add(tx); n != i+1 {
							t.Fatalf("\t%s\tTest %d:\tShould report the new size, got %d.", failed, testID, n)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to add every transaction.", success, testID)

					for i, tx := range mp.Copy() {
						if tx.ID != tst.txs[i].ID {
							t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tx.ID)
							t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.txs[i].ID)
							t.Fatalf("\t%s\tTest %d:\tShould keep arrival order.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould keep arrival order.", success, testID)

					txs := mp.DrainAll()
					if len(txs) != len(tst.txs) || mp.Count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould drain every transaction.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould drain every transaction.", success, testID)

					if txs := mp.DrainAll(); len(txs) != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould drain nothing the second time.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould drain nothing the second time.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestConcurrentDrain(t *testing.T) {
	const adds = 500

	mp := mempool.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var drained int

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range adds {
			mp.Add(tx("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", int64(i+1)))
		}
	}()
	go func() {
		defer wg.Done()
		for range adds {
			n := len(mp.DrainAll())
			mu.Lock()
			drained += n
			mu.Unlock()
		}
	}()
	wg.Wait()

	drained += len(mp.DrainAll())

	if drained != adds {
		t.Fatalf("\t%s\tShould never lose or repeat a transaction: got %d exp %d", failed, drained, adds)
	}
	t.Logf("\t%s\tShould never lose or repeat a transaction.", success)
}

func TestTruncate(t *testing.T) {
	mp := mempool.New()
	mp.Add(tx("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 1))
	mp.Truncate()

	if mp.Count() != 0 {
		t.Fatalf("\t%s\tShould clear the pool.", failed)
	}
	t.Logf("\t%s\tShould clear the pool.", success)
}
