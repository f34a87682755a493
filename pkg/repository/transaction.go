package repository

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/shopspring/decimal"
)

// Transaction is one record of the append-only audit log. The log is never
// compacted and never read back by the ledger.
type Transaction struct {
	Timestamp int64           `json:"timestamp"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
}

// AppendTransaction appends one record to the transaction log and returns it.
func (r *Repository) AppendTransaction(from, to string, amount decimal.Decimal) (*Transaction, error) {
	txn := &Transaction{
		Timestamp: time.Now().Unix(),
		From:      from,
		To:        to,
		Amount:    amount.Round(1),
	}
	raw, err := json.Marshal(txn)
	if err != nil {
		return nil, err
	}
	r.transactionMu.Lock()
	defer r.transactionMu.Unlock()
	f, err := os.OpenFile(r.path(TransactionFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_ = level.Error(r.logger).Log("method", "AppendTransaction", "err", err)
		return nil, err
	}
	defer f.Close()
	if _, err := f.Write(append(raw, '\n')); err != nil {
		_ = level.Error(r.logger).Log("method", "AppendTransaction", "err", err)
		return nil, err
	}
	return txn, nil
}

// Transactions reads the full audit log, skipping malformed records. Only
// the outer report tooling uses this; the ledger itself never does.
func (r *Repository) Transactions() ([]*Transaction, error) {
	r.transactionMu.Lock()
	defer r.transactionMu.Unlock()
	lines, err := readLines(r.path(TransactionFile))
	if err != nil {
		_ = level.Error(r.logger).Log("method", "Transactions", "err", err)
		return nil, err
	}
	txns := make([]*Transaction, 0, len(lines))
	for _, line := range lines {
		txn := &Transaction{}
		if err := json.Unmarshal([]byte(line), txn); err != nil {
			continue
		}
		txns = append(txns, txn)
	}
	return txns, nil
}
