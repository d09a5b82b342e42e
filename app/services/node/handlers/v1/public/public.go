// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/ardanlabs/ledger/foundation/blockchain/wallet"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the node.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// This starts a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events and send them to the client.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SendTransaction creates a transaction from a wallet of the name service
// folder and adds it to the mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req sendTx
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	path, err := h.NS.Path(req.From)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	from, err := wallet.LoadFile(path, req.Password)
	if err != nil {
		if errors.Is(err, wallet.ErrAuthentication) {
			return errs.NewTrusted(wallet.ErrAuthentication, http.StatusUnauthorized)
		}
		return err
	}

	to := req.To
	if !database.IsAddress(to) {
		if to, err = h.NS.Address(req.To); err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	h.Log.Infow("send tran", "traceid", v.TraceID, "from", from.Address(), "to", to, "amount", req.Amount)

	tx, err := h.State.SubmitTransaction(from, to, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, utxo.ErrInsufficientFunds),
			errors.Is(err, utxo.ErrInvalidAmount),
			errors.Is(err, database.ErrInvalidAddress):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("submit transaction: %w", err)
	}

	resp := struct {
		Status string `json:"status"`
		ID     string `json:"id"`
	}{
		Status: "transaction added to mempool",
		ID:     tx.ID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalMining asks the worker to mine the mempool into a new block.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	txs := make([]tx, len(mempool))
	for i, dbTx := range mempool {
		txs[i] = toTx(dbTx, h.NS)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Balances returns the balance of the address or of every address holding
// unspent outputs.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var bals []balance

	switch address := web.Param(r, "address"); address {
	case "":
		dbBalances, err := h.State.QueryBalances()
		if err != nil {
			return err
		}

		for address, amount := range dbBalances {
			bals = append(bals, balance{Address: address, Name: h.NS.Lookup(address), Balance: amount})
		}
		sort.Slice(bals, func(i, j int) bool { return bals[i].Address < bals[j].Address })

	default:
		address, err := database.ToAddress(address)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}

		amount, err := h.State.QueryBalance(address)
		if err != nil {
			return err
		}

		bals = append(bals, balance{Address: address, Name: h.NS.Lookup(address), Balance: amount})
	}

	resp := balances{
		LatestHash:  h.State.RetrieveLatestHash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Balances:    bals,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Unspent returns the unspent outputs owned by the address.
func (h Handlers) Unspent(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	dbUnspent, err := h.State.QueryUnspent(address)
	if err != nil {
		return err
	}

	outs := make([]unspentOutput, len(dbUnspent.Outputs))
	for i, out := range dbUnspent.Outputs {
		outs[i] = unspentOutput{TxID: out.TxID, OutputIndex: out.OutputIndex, Amount: out.Amount}
	}

	resp := unspent{
		Address: address,
		Name:    h.NS.Lookup(address),
		Sum:     dbUnspent.Sum,
		Outputs: outs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every block of the chain, newest first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks, err := h.State.QueryBlocks()
	if err != nil {
		return err
	}

	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(dbBlock, h.NS)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByHash returns the block with the hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash := web.Param(r, "hash")

	dbBlock, err := h.State.QueryBlockByHash(hash)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %s: %w", hash, database.ErrNotFound), http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toBlock(dbBlock, h.NS), http.StatusOK)
}
