package amqp

import (
	"context"
	"log/slog"

	"saldo/internal/ledger"
)

// Publisher is the subset of Client the ledger notifier needs.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error
}

// LedgerSubscriber forwards committed ledger events to pub. Publishing errors
// are logged; the ledger mutation has already succeeded by then.
func LedgerSubscriber(pub Publisher, logger *slog.Logger) ledger.Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, ev ledger.Event) {
		msg := NewLedgerEventMessage(ev)
		if err := pub.PublishLedgerEvent(context.WithoutCancel(ctx), msg); err != nil {
			logger.ErrorContext(ctx, "Failed to publish ledger event",
				"event", msg.Event,
				"id", msg.ID,
				"error", err)
		}
	}
}
