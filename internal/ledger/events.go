package ledger

import (
	"context"
	"time"

	"saldo/internal/core"
)

// EventKind names a committed ledger mutation.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
)

// Event is delivered to subscribers after a mutation has been persisted.
type Event struct {
	Kind        EventKind
	Transaction core.Transaction // set for added and removed
	Removed     int              // number of entries dropped by a clear
	At          time.Time
}

// Subscriber receives ledger events. It runs on the goroutine that performed
// the mutation, after the store lock has been released.
type Subscriber func(ctx context.Context, ev Event)
