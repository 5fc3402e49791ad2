// Package ledger owns the ordered transaction list and its persisted mirror.
//
// Every mutation is write-through: the new list is persisted first and only
// then becomes the in-memory state, so the two never diverge. Rendering is the
// caller's business; interested parties can Subscribe to committed changes.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
)

// ErrNotConfirmed is returned by ClearAll when the user declined.
var ErrNotConfirmed = errors.New("clear not confirmed")

// Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	txs    []core.Transaction
	lastID int64

	now    func() time.Time
	logger *slog.Logger

	// pubMu is held from commit until subscribers return, so events are
	// delivered in commit order. Subscribers must not mutate the store.
	pubMu  sync.Mutex
	subMu  sync.RWMutex
	subs   map[int]Subscriber
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for ids and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		now:    time.Now,
		logger: slog.Default(),
		subs:   make(map[int]Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. An absent key
// yields an empty ledger; so does a corrupted document, which is logged
// rather than returned. Only storage read failures are errors.
func (s *Store) Load(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, storage.KeyTransactions)
	if err != nil {
		return fmt.Errorf("read transactions: %w", err)
	}

	var txs []core.Transaction
	if ok {
		decoded, report, err := decode(data)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "Persisted transactions are corrupted, starting with an empty ledger",
				"error", err, "bytes", len(data))
		case report.Discarded > 0:
			s.logger.WarnContext(ctx, "Discarded malformed persisted transactions",
				"kept", report.Kept, "discarded", report.Discarded)
			txs = decoded
		default:
			txs = decoded
		}
	}

	s.mu.Lock()
	s.txs = txs
	s.lastID = maxID(txs)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded", "count", len(txs))
	return nil
}

// Add validates and appends a new transaction. Validation failures leave the
// ledger untouched and satisfy core.IsValidation.
func (s *Store) Add(ctx context.Context, description string, amount float64) (core.Transaction, error) {
	tx := core.Transaction{
		Description: strings.TrimSpace(description),
		Amount:      amount,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	now := s.now()
	tx.ID = s.nextIDLocked(now)
	next := make([]core.Transaction, len(s.txs), len(s.txs)+1)
	copy(next, s.txs)
	next = append(next, tx)
	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.txs = next
	s.lastID = tx.ID
	s.mu.Unlock()

	s.publish(ctx, Event{Kind: EventAdded, Transaction: tx, At: now})
	return tx, nil
}

// Remove drops the transaction with the given id. An unknown id is a silent
// no-op reported as false.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	idx := -1
	for i, t := range s.txs {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	removed := s.txs[idx]
	next := make([]core.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:idx]...)
	next = append(next, s.txs[idx+1:]...)
	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.txs = next
	now := s.now()
	s.mu.Unlock()

	s.publish(ctx, Event{Kind: EventRemoved, Transaction: removed, At: now})
	return true, nil
}

// ClearAll empties the ledger and removes the persisted key entirely.
// confirmed carries the user's answer to the confirmation prompt.
func (s *Store) ClearAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if err := s.kv.Delete(ctx, storage.KeyTransactions); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete transactions: %w", err)
	}
	removed := len(s.txs)
	s.txs = nil
	now := s.now()
	s.mu.Unlock()

	s.publish(ctx, Event{Kind: EventCleared, Removed: removed, At: now})
	return nil
}

// Transactions returns a copy of the list in storage (insertion) order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Len returns the number of transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func (s *Store) Summary() core.Summary {
	return core.Summarize(s.Transactions())
}

// Subscribe registers fn for committed mutations and returns a function that
// removes it. Events arrive in commit order; fn may read the store but must
// not mutate it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(ctx context.Context, ev Event) {
	s.subMu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(ctx, ev)
	}
}

// nextIDLocked derives the id from the creation time in milliseconds, bumped
// past the last id so two adds within the same millisecond stay unique.
func (s *Store) nextIDLocked(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

func (s *Store) persistLocked(ctx context.Context, txs []core.Transaction) error {
	data, err := encode(txs)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.KeyTransactions, data); err != nil {
		return fmt.Errorf("persist transactions: %w", err)
	}
	return nil
}

func maxID(txs []core.Transaction) int64 {
	var m int64
	for _, t := range txs {
		if t.ID > m {
			m = t.ID
		}
	}
	return m
}
