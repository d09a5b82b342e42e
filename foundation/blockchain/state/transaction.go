package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/utxo"
	"github.com/shopspring/decimal"
)

// SubmitTransaction spends the amount from the wallet to the address. The
// transaction is added to the mempool and shared with the peers.
func (s *State) SubmitTransaction(from utxo.Wallet, to string, amount decimal.Decimal) (database.Tx, error) {
	to, err := database.ToAddress(to)
	if err != nil {
		return database.Tx{}, err
	}

	tx, err := utxo.BuildTransaction(s.chain, from, to, amount)
	if err != nil {
		return database.Tx{}, err
	}

	n := s.mempool.Add(tx)

	s.evHandler("state: SubmitTransaction: tx[%s] from[%s] to[%s] amount[%s] mempool[%d]", tx.ID, from.Address(), to, amount, n)
	s.evHandler("viewer: tx[%s] amount[%s]", tx.ID, amount)

	s.Worker.SignalShareTx(tx)

	if s.IsAutoMineDue() {
		s.Worker.SignalStartMining()
	}

	return tx, nil
}
