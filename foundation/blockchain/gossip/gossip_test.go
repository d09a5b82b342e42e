package gossip_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/chain"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/ardanlabs/ledger/foundation/p2p/localbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addr0 = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
	addr1 = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"

	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

type wallet string

func (w wallet) Address() string { return string(w) }

type node struct {
	chain    *chain.Chain
	pool     *mempool.Mempool
	transp   *localbus.Node
	protocol *gossip.Protocol
}

func newNode(t *testing.T, bus *localbus.Bus, id string, genesis bool) *node {
	t.Helper()

	return newNodeWithStorage(t, bus, id, memory.New(), genesis)
}

func newNodeWithStorage(t *testing.T, bus *localbus.Bus, id string, strg database.Storage, genesis bool) *node {
	t.Helper()

	var ch *chain.Chain
	var err error
	switch genesis {
	case true:
		ch, _, err = chain.InitGenesis(strg, addr0, decimal.NewFromInt(100), nil)
	default:
		ch, err = chain.New(strg, nil)
	}
	require.NoError(t, err)

	transp := bus.Node(id)
	pool := mempool.New()

	p, err := gossip.New(gossip.Config{
		Transport:   transp,
		Ledger:      ch,
		Pool:        pool,
		SettleDelay: tick,
		RetryDelay:  tick,
		EvHandler:   func(v string, args ...any) { t.Logf(v, args...) },
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())

	t.Cleanup(func() {
		p.Shutdown()
		transp.Close()
	})

	return &node{chain: ch, pool: pool, transp: transp, protocol: p}
}

func balance(t *testing.T, ch *chain.Chain, address string) decimal.Decimal {
	t.Helper()

	b, err := utxo.Balance(ch.Iterator(), address)
	require.NoError(t, err)

	return b
}

func publish(t *testing.T, n *localbus.Node, kind gossip.Kind, data string) {
	t.Helper()
	require.NoError(t, n.Publish(context.Background(), string(kind), []byte(data)))
}

// =============================================================================

func Test_Convergence(t *testing.T) {
	bus := localbus.New()

	a := newNode(t, bus, "node-a", true)
	tx, err := utxo.BuildTransaction(a.chain, wallet(addr0), addr1, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = a.chain.Mine([]database.Tx{tx})
	require.NoError(t, err)

	b := newNode(t, bus, "node-b", false)
	assert.Empty(t, b.chain.LatestHash())

	a.transp.Connect()
	b.transp.Connect()

	require.Eventually(t, func() bool {
		return b.chain.LatestHash() == a.chain.LatestHash()
	}, waitFor, tick, "the empty node should pull every block")

	blocks, err := b.chain.Blocks()
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	assert.True(t, balance(t, b.chain, addr0).Equal(decimal.NewFromInt(70)))
	assert.True(t, balance(t, b.chain, addr1).Equal(decimal.NewFromInt(30)))
	assert.ElementsMatch(t, []string{"node-a"}, peerIDs(b.protocol))
}

func Test_CreatedBlock(t *testing.T) {
	bus := localbus.New()

	a := newNode(t, bus, "node-a", true)
	b := newNode(t, bus, "node-b", false)

	a.transp.Connect()
	b.transp.Connect()

	require.Eventually(t, func() bool {
		return b.chain.LatestHash() == a.chain.LatestHash()
	}, waitFor, tick)

	block, err := a.chain.Mine(nil)
	require.NoError(t, err)
	require.NoError(t, a.protocol.PublishBlock(context.Background(), block))

	require.Eventually(t, func() bool {
		return b.chain.LatestHash() == block.Hash
	}, waitFor, tick, "an announced block should be pulled")
}

func Test_PointerGap(t *testing.T) {
	bus := localbus.New()

	a := newNode(t, bus, "node-a", true)

	strg := &pointerFailStore{Memory: memory.New()}
	strg.failNext.Store(true)
	b := newNodeWithStorage(t, bus, "node-b", strg, false)

	a.transp.Connect()
	b.transp.Connect()

	require.Eventually(t, func() bool {
		stored, err := b.chain.HasBlock(a.chain.LatestHash())
		return err == nil && stored
	}, waitFor, tick, "the block should be stored")
	assert.Empty(t, b.chain.LatestHash(), "the head should not move when the pointer write fails")

	require.NoError(t, b.protocol.Sync(context.Background()))

	require.Eventually(t, func() bool {
		return b.chain.LatestHash() == a.chain.LatestHash()
	}, waitFor, tick, "a later sync should move the head to the stored block")

	hash, err := strg.LatestHash()
	require.NoError(t, err)
	assert.Equal(t, a.chain.LatestHash(), hash)
}

func Test_Transactions(t *testing.T) {
	bus := localbus.New()

	a := newNode(t, bus, "node-a", true)
	tx, err := utxo.BuildTransaction(a.chain, wallet(addr0), addr1, decimal.NewFromInt(30))
	require.NoError(t, err)
	a.pool.Add(tx)

	b := newNode(t, bus, "node-b", false)

	a.transp.Connect()
	b.transp.Connect()

	require.Eventually(t, func() bool {
		return contains(b.pool, tx.ID)
	}, waitFor, tick, "pending transactions should be shared on connect")

	tx2 := database.NewCoinbaseTx(addr1, decimal.NewFromInt(5))
	require.NoError(t, b.protocol.PublishTransaction(context.Background(), tx2))

	require.Eventually(t, func() bool {
		return contains(a.pool, tx2.ID)
	}, waitFor, tick, "a created transaction should reach the peer")
}

func Test_Addressing(t *testing.T) {
	bus := localbus.New()

	b := newNode(t, bus, "node-b", false)
	b.transp.Connect()

	raw := bus.Node("raw")
	defer raw.Close()
	raw.Connect()

	genesis := database.NewGenesisBlock(addr0, decimal.NewFromInt(100))
	block := jsonBlock(t, genesis)

	// A reply for another node is ignored.
	publish(t, raw, gossip.KindSyncBlock, `{"nodeId":"node-c","block":`+block+`}`)

	// A payload that does not decode is logged and dropped.
	publish(t, raw, gossip.KindSyncBlock, `{"nodeId":`)

	// A block whose hash does not match is rejected.
	tampered := genesis
	tampered.TimeStamp++
	publish(t, raw, gossip.KindSyncBlock, `{"nodeId":"node-b","block":`+jsonBlock(t, tampered)+`}`)

	// Messages are delivered in order, once this one landed the ones
	// above were handled.
	marker := database.NewCoinbaseTx(addr1, decimal.NewFromInt(1))
	publish(t, raw, gossip.KindSyncTxn, `{"nodeId":"broadcast","transactions":[`+jsonTx(t, marker)+`]}`)

	require.Eventually(t, func() bool {
		return contains(b.pool, marker.ID)
	}, waitFor, tick)
	assert.Empty(t, b.chain.LatestHash(), "no block should have been accepted")

	// A broadcast reply is accepted.
	publish(t, raw, gossip.KindSyncBlock, `{"nodeId":"broadcast","block":`+block+`}`)

	require.Eventually(t, func() bool {
		return b.chain.LatestHash() == genesis.Hash
	}, waitFor, tick)

	stored, err := b.chain.FindBlock(genesis.Hash)
	require.NoError(t, err)
	assert.NoError(t, stored.VerifyHash())
}

func Test_Shutdown(t *testing.T) {
	bus := localbus.New()

	ch, _, err := chain.InitGenesis(memory.New(), addr0, decimal.NewFromInt(100), nil)
	require.NoError(t, err)

	transp := bus.Node("node-a")
	defer transp.Close()

	p, err := gossip.New(gossip.Config{
		Transport:   transp,
		Ledger:      ch,
		Pool:        mempool.New(),
		SettleDelay: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, p.Start())

	other := bus.Node("node-b")
	defer other.Close()

	transp.Connect()
	other.Connect()

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("shutdown should cancel pending delayed requests")
	}
}

func Test_Config(t *testing.T) {
	_, err := gossip.New(gossip.Config{})
	assert.Error(t, err)
}

// =============================================================================

// pointerFailStore fails the next pointer write after the block was
// appended.
type pointerFailStore struct {
	*memory.Memory
	failNext atomic.Bool
}

func (s *pointerFailStore) SetLatestHash(hash string) error {
	if s.failNext.CompareAndSwap(true, false) {
		return database.NewStorageError("set latest hash", errors.New("disk full"))
	}
	return s.Memory.SetLatestHash(hash)
}

func contains(pool *mempool.Mempool, id string) bool {
	for _, tx := range pool.Copy() {
		if tx.ID == id {
			return true
		}
	}
	return false
}

func jsonBlock(t *testing.T, block database.Block) string {
	t.Helper()

	data, err := json.Marshal(block)
	require.NoError(t, err)

	return string(data)
}

func jsonTx(t *testing.T, tx database.Tx) string {
	t.Helper()

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	return string(data)
}

func peerIDs(p *gossip.Protocol) []string {
	var ids []string
	for _, peer := range p.KnownPeers() {
		ids = append(ids, peer.ID)
	}
	return ids
}
