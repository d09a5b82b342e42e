// Package private maintains the group of handlers for node operators.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// Sync asks the peers for the blocks and transactions this node misses.
// The replies are handled in the background.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.Log.Infow("sync", "traceid", v.TraceID, "latestHash", h.State.RetrieveLatestHash())

	if err := h.State.NetSync(ctx); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	resp := struct {
		Status     string `json:"status"`
		LatestHash string `json:"latest_hash"`
	}{
		Status:     "sync requested",
		LatestHash: h.State.RetrieveLatestHash(),
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}
