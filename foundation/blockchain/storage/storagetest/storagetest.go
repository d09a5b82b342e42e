// Package storagetest provides the behavior every database.Storage backend
// must show. Backends call Run from their own tests.
package storagetest

import (
	"errors"
	"sync"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Address is the account credited by the blocks built in this suite.
const Address = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"

// Factory constructs a fresh and empty backend for a single test.
type Factory func(t *testing.T) database.Storage

// Run executes the conformance suite against the backend.
func Run(t *testing.T, newStorage Factory) {
	t.Run("empty", func(t *testing.T) {
		strg := newStorage(t)

		empty, err := strg.IsEmpty()
		require.NoError(t, err)
		assert.True(t, empty, "a new store should be empty")

		_, err = strg.LatestHash()
		assert.ErrorIs(t, err, database.ErrNotFound)

		_, err = strg.Find(database.ZeroHash)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("roundtrip", func(t *testing.T) {
		strg := newStorage(t)

		genesis := database.NewGenesisBlock(Address, decimal.NewFromInt(100))
		require.NoError(t, strg.Append(genesis))

		empty, err := strg.IsEmpty()
		require.NoError(t, err)
		assert.False(t, empty, "a store with a block should not be empty")

		got, err := strg.Find(genesis.Hash)
		require.NoError(t, err)
		assert.Equal(t, genesis.Hash, got.Hash)
		assert.Equal(t, genesis.Hash, got.ComputeHash(), "the recomputed hash should match")
		assert.Equal(t, genesis.TimeStamp, got.TimeStamp)
		require.Len(t, got.Transactions, 1)
		assert.True(t, got.Transactions[0].Outputs[0].Amount.Equal(decimal.NewFromInt(100)))
	})

	t.Run("emptyblock", func(t *testing.T) {
		strg := newStorage(t)

		block := database.NewBlock(database.ZeroHash, nil)
		require.NoError(t, strg.Append(block))

		got, err := strg.Find(block.Hash)
		require.NoError(t, err)
		assert.Empty(t, got.Transactions)
		assert.NoError(t, got.VerifyHash())
	})

	t.Run("latesthash", func(t *testing.T) {
		strg := newStorage(t)

		require.NoError(t, strg.SetLatestHash("0x01"))
		require.NoError(t, strg.SetLatestHash("0x02"))

		hash, err := strg.LatestHash()
		require.NoError(t, err)
		assert.Equal(t, "0x02", hash, "the pointer should hold the last written hash")
	})

	t.Run("concurrentpointer", func(t *testing.T) {
		strg := newStorage(t)

		const writers = 8

		var wg sync.WaitGroup
		wg.Add(writers)
		for range writers {
			go func() {
				defer wg.Done()
				if err := strg.SetLatestHash("0x03"); err != nil {
					t.Error(err)
				}
			}()
		}
		wg.Wait()

		hash, err := strg.LatestHash()
		require.NoError(t, err)
		assert.Equal(t, "0x03", hash)
	})

	t.Run("overwrite", func(t *testing.T) {
		strg := newStorage(t)

		block := database.NewGenesisBlock(Address, decimal.NewFromInt(100))
		require.NoError(t, strg.Append(block))
		require.NoError(t, strg.Append(block))

		got, err := strg.Find(block.Hash)
		require.NoError(t, err)
		assert.Equal(t, block.Hash, got.Hash)
	})

	t.Run("notfound", func(t *testing.T) {
		strg := newStorage(t)

		_, err := strg.Find("0xdeadbeef")
		var se *database.StorageError
		assert.False(t, errors.As(err, &se), "a missing block is not a storage failure")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}
