package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/ledger"
	"saldo/internal/log"
)

// LedgerWorker mirrors the ledger from its change notifications and logs the
// resulting balance. Redelivered messages are harmless: adds and removes are
// keyed by transaction id.
type LedgerWorker struct {
	logger *slog.Logger

	mu      sync.Mutex
	mirror  map[int64]core.Transaction
	handled int
}

func NewLedgerWorker(logger *slog.Logger) *LedgerWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerWorker{
		logger: logger,
		mirror: make(map[int64]core.Transaction),
	}
}

// HandleLedgerEvent applies a single ledger event from AMQP.
func (w *LedgerWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.mu.Lock()
	switch ledger.EventKind(msg.Event) {
	case ledger.EventAdded:
		w.mirror[msg.ID] = core.Transaction{ID: msg.ID, Description: msg.Description, Amount: msg.Amount}
	case ledger.EventRemoved:
		delete(w.mirror, msg.ID)
	case ledger.EventCleared:
		clear(w.mirror)
	default:
		w.mu.Unlock()
		return fmt.Errorf("unknown ledger event %q", msg.Event)
	}
	w.handled++
	sum := w.summaryLocked()
	count := len(w.mirror)
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Ledger event processed",
		"event", msg.Event,
		log.FieldTxID, msg.ID,
		"transactions", count,
		"balance", core.FormatEUR(sum.Balance),
		"income", core.FormatEUR(sum.Income),
		"expense", core.FormatEUR(sum.Expense))
	return nil
}

// Snapshot returns the mirrored transactions in id order and their summary.
func (w *LedgerWorker) Snapshot() ([]core.Transaction, core.Summary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sortedLocked(), w.summaryLocked()
}

// Handled returns the number of applied events.
func (w *LedgerWorker) Handled() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handled
}

func (w *LedgerWorker) summaryLocked() core.Summary {
	return core.Summarize(w.sortedLocked())
}

func (w *LedgerWorker) sortedLocked() []core.Transaction {
	txs := make([]core.Transaction, 0, len(w.mirror))
	for _, tx := range w.mirror {
		txs = append(txs, tx)
	}
	slices.SortFunc(txs, func(a, b core.Transaction) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return txs
}
