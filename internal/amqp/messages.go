package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"saldo/internal/ledger"
)

// LedgerEventMessage describes one committed ledger mutation. Consumers get
// enough to mirror the change without reading the browser-side store.
type LedgerEventMessage struct {
	Event       string    `json:"event"`
	ID          int64     `json:"id,omitempty"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Removed     int       `json:"removed,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEventMessage converts a ledger event.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		Event:     string(ev.Kind),
		Timestamp: ev.At.UTC(),
	}
	switch ev.Kind {
	case ledger.EventAdded, ledger.EventRemoved:
		msg.ID = ev.Transaction.ID
		msg.Description = ev.Transaction.Description
		msg.Amount = ev.Transaction.Amount
	case ledger.EventCleared:
		msg.Removed = ev.Removed
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON parses a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch ledger.EventKind(msg.Event) {
	case ledger.EventAdded, ledger.EventRemoved, ledger.EventCleared:
	default:
		return nil, fmt.Errorf("unknown ledger event %q", msg.Event)
	}
	return &msg, nil
}
