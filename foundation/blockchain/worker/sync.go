package worker

import (
	"context"
)

// syncOperations polls the peers on every tick so blocks announced while
// this node was unreachable are still pulled.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// Sync asks the peers for the next block and their pending transactions.
// It also starts mining when the mempool grew past the auto mine size.
func (w *Worker) Sync() {
	w.evHandler("worker: Sync: started")
	defer w.evHandler("worker: Sync: completed")

	ctx, cancel := context.WithTimeout(context.Background(), netTimeout)
	defer cancel()

	if err := w.state.NetSync(ctx); err != nil {
		w.evHandler("worker: Sync: WARNING: %s", err)
	}

	if w.state.IsAutoMineDue() {
		w.SignalStartMining()
	}
}
