package state_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/p2p/localbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	recipient = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"

	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func newState(t *testing.T, bus *localbus.Bus, id string, g *genesis.Genesis) (*state.State, *localbus.Node) {
	t.Helper()

	transp := bus.Node(id)

	st, err := state.New(state.Config{
		Storage:        memory.New(),
		Genesis:        g,
		Transport:      transp,
		SettleDelay:    tick,
		RetryDelay:     tick,
		ResyncInterval: time.Hour,
		EvHandler:      func(v string, args ...any) { t.Logf(id+": "+v, args...) },
	})
	require.NoError(t, err)

	worker.Run(st, func(v string, args ...any) { t.Logf(id+": "+v, args...) })

	t.Cleanup(func() {
		assert.NoError(t, st.Shutdown())
		transp.Close()
	})

	return st, transp
}

func hasTx(st *state.State, id string) bool {
	for _, tx := range st.RetrieveMempool() {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// =============================================================================

func Test_MineAndSyncBlock(t *testing.T) {
	w, err := wallet.New()
	require.NoError(t, err)

	bus := localbus.New()
	g := genesis.Genesis{Address: w.Address(), Issuance: decimal.NewFromInt(100)}

	a, transpA := newState(t, bus, "node-a", &g)
	b, transpB := newState(t, bus, "node-b", nil)

	assert.Empty(t, b.RetrieveLatestHash(), "a node without genesis settings starts empty")

	transpA.Connect()
	transpB.Connect()

	require.Eventually(t, func() bool {
		return b.RetrieveLatestHash() == a.RetrieveLatestHash()
	}, waitFor, tick, "the empty node should receive the genesis block")

	tx, err := a.SubmitTransaction(w, recipient, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.Equal(t, 1, a.QueryMempoolLength())

	require.Eventually(t, func() bool {
		return hasTx(b, tx.ID)
	}, waitFor, tick, "the transaction should be shared")

	block, err := a.MineNewBlock(context.Background())
	require.NoError(t, err)
	require.Len(t, block.Transactions, 1)
	assert.Zero(t, a.QueryMempoolLength(), "mining drains the mempool")

	require.Eventually(t, func() bool {
		return b.RetrieveLatestHash() == block.Hash
	}, waitFor, tick, "the mined block should reach the peer")

	for _, st := range []*state.State{a, b} {
		bal, err := st.QueryBalance(w.Address())
		require.NoError(t, err)
		assert.True(t, bal.Equal(decimal.NewFromInt(70)), "sender balance: %s", bal)

		bal, err = st.QueryBalance(recipient)
		require.NoError(t, err)
		assert.True(t, bal.Equal(decimal.NewFromInt(30)), "recipient balance: %s", bal)
	}

	blocks, err := b.QueryBlocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	found, err := b.QueryBlockByHash(block.Hash)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, found.Transactions[0].ID)

	status := a.RetrieveStatus()
	assert.Equal(t, "node-a", status.NodeID)
	assert.Equal(t, block.Hash, status.LatestHash)
	require.Len(t, status.KnownPeers, 1)
	assert.Equal(t, "node-b", status.KnownPeers[0].ID)
}

func Test_SubmitTransactionErrors(t *testing.T) {
	w, err := wallet.New()
	require.NoError(t, err)

	g := genesis.Genesis{Address: w.Address(), Issuance: decimal.NewFromInt(100)}
	st, _ := newState(t, localbus.New(), "node-a", &g)

	_, err = st.SubmitTransaction(w, recipient, decimal.NewFromInt(101))
	assert.ErrorIs(t, err, utxo.ErrInsufficientFunds)

	_, err = st.SubmitTransaction(w, "kennedy", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, database.ErrInvalidAddress)

	_, err = st.SubmitTransaction(w, recipient, decimal.Zero)
	assert.ErrorIs(t, err, utxo.ErrInvalidAmount)

	assert.Zero(t, st.QueryMempoolLength(), "rejected transactions never reach the mempool")
}

func Test_GenesisAddressCase(t *testing.T) {
	w, err := wallet.New()
	require.NoError(t, err)

	g := genesis.Genesis{Address: strings.ToLower(w.Address()), Issuance: decimal.NewFromInt(100)}
	st, _ := newState(t, localbus.New(), "node-a", &g)

	bal, err := st.QueryBalance(w.Address())
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(100)), "issuance should be credited to the checksum address: %s", bal)

	_, err = st.SubmitTransaction(w, recipient, decimal.NewFromInt(30))
	require.NoError(t, err, "the issuance should be spendable")
}

func Test_Unspent(t *testing.T) {
	w, err := wallet.New()
	require.NoError(t, err)

	g := genesis.Genesis{Address: w.Address(), Issuance: decimal.NewFromInt(100)}
	st, _ := newState(t, localbus.New(), "node-a", &g)

	_, err = st.SubmitTransaction(w, recipient, decimal.NewFromInt(25))
	require.NoError(t, err)
	_, err = st.MineNewBlock(context.Background())
	require.NoError(t, err)

	unspent, err := st.QueryUnspent(w.Address())
	require.NoError(t, err)
	require.Len(t, unspent.Outputs, 1)
	assert.True(t, unspent.Sum.Equal(decimal.NewFromInt(75)))

	balances, err := st.QueryBalances()
	require.NoError(t, err)
	assert.Len(t, balances, 2)
}

func Test_Config(t *testing.T) {
	_, err := state.New(state.Config{})
	assert.Error(t, err)

	g := genesis.Genesis{Address: "kennedy", Issuance: decimal.NewFromInt(100)}
	_, err = state.New(state.Config{
		Storage:   memory.New(),
		Genesis:   &g,
		Transport: localbus.New().Node("node-a"),
	})
	assert.Error(t, err, "invalid genesis settings should be rejected")
}
