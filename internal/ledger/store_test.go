package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"saldo/internal/core"
	"saldo/internal/storage"
	"saldo/internal/storage/memory"
)

type failingKV struct {
	*memory.Store
	failSet    bool
	failDelete bool
	failGet    bool
}

var errDisk = errors.New("disk full")

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errDisk
	}
	return f.Store.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errDisk
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errDisk
	}
	return f.Store.Delete(ctx, key)
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	s := NewStore(kv, opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestAddAppendsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv, WithClock(fixedClock(1_700_000_000_000)))

	tx, err := s.Add(ctx, "  Coffee  ", -3.50)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.Description != "Coffee" || tx.Amount != -3.5 || tx.ID != 1_700_000_000_000 {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	data, ok, _ := kv.Get(ctx, storage.KeyTransactions)
	if !ok {
		t.Fatal("transactions not persisted")
	}
	want := `[{"id":1700000000000,"description":"Coffee","amount":-3.5}]`
	if data != want {
		t.Fatalf("persisted %s, want %s", data, want)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv)

	cases := []struct {
		desc   string
		amount float64
	}{
		{"", 10},
		{"   ", 10},
		{"Lunch", 0},
	}
	for _, tc := range cases {
		_, err := s.Add(ctx, tc.desc, tc.amount)
		if !core.IsValidation(err) {
			t.Fatalf("Add(%q, %v) expected validation error, got %v", tc.desc, tc.amount, err)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("ledger changed on invalid input, len=%d", s.Len())
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyTransactions); ok {
		t.Fatal("invalid input must not be persisted")
	}
}

func TestAddGeneratesUniqueIDsWithinSameMillisecond(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New(), WithClock(fixedClock(42)))

	a, _ := s.Add(ctx, "a", 1)
	b, _ := s.Add(ctx, "b", 2)
	c, _ := s.Add(ctx, "c", 3)
	if !(a.ID < b.ID && b.ID < c.ID) {
		t.Fatalf("ids not strictly increasing: %d %d %d", a.ID, b.ID, c.ID)
	}
}

func TestAddKeepsStateWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New()}
	s := newTestStore(t, kv)

	if _, err := s.Add(ctx, "ok", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	kv.failSet = true
	if _, err := s.Add(ctx, "lost", 2); !errors.Is(err, errDisk) {
		t.Fatalf("expected disk error, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("in-memory list diverged from storage, len=%d", s.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv)

	keep, _ := s.Add(ctx, "keep", 5)
	drop, _ := s.Add(ctx, "drop", -5)

	removed, err := s.Remove(ctx, drop.ID)
	if err != nil || !removed {
		t.Fatalf("first remove = %v, %v", removed, err)
	}
	removed, err = s.Remove(ctx, drop.ID)
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op, got %v, %v", removed, err)
	}

	got := s.Transactions()
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("unexpected ledger %+v", got)
	}

	reloaded := newTestStore(t, kv)
	if reloaded.Len() != 1 {
		t.Fatalf("persisted ledger len = %d, want 1", reloaded.Len())
	}
}

func TestClearAllRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv)
	_, _ = s.Add(ctx, "a", 1)

	if err := s.ClearAll(ctx, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatal("declined clear must not change the ledger")
	}

	if err := s.ClearAll(ctx, true); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("ledger not empty after clear, len=%d", s.Len())
	}
	if _, ok, _ := kv.Get(ctx, storage.KeyTransactions); ok {
		t.Fatal("clear must remove the persisted key, not write an empty list")
	}
	if reloaded := newTestStore(t, kv); reloaded.Len() != 0 {
		t.Fatalf("reload after clear len = %d", reloaded.Len())
	}
}

func TestClearAllPersistFailure(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{Store: memory.New()}
	s := newTestStore(t, kv)
	_, _ = s.Add(ctx, "a", 1)

	kv.failDelete = true
	if err := s.ClearAll(ctx, true); !errors.Is(err, errDisk) {
		t.Fatalf("expected disk error, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatal("failed clear must keep the ledger")
	}
}

func TestRoundTripPreservesOrderAndPrecision(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv)

	inputs := []struct {
		desc   string
		amount float64
	}{
		{"Coffee", -3.50},
		{"Salary", 2000},
		{"Tiny", 0.1 + 0.2},
		{"Odd", -1234.5678901234},
	}
	for _, in := range inputs {
		if _, err := s.Add(ctx, in.desc, in.amount); err != nil {
			t.Fatalf("add %s: %v", in.desc, err)
		}
	}

	reloaded := newTestStore(t, kv)
	want := s.Transactions()
	got := reloaded.Transactions()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadCorruptedDataYieldsEmptyLedger(t *testing.T) {
	kv := memory.NewWith(map[string]string{storage.KeyTransactions: "{not json"})
	s := newTestStore(t, kv)
	if s.Len() != 0 {
		t.Fatalf("expected empty ledger, len=%d", s.Len())
	}

	// The ledger stays usable.
	if _, err := s.Add(context.Background(), "fresh", 1); err != nil {
		t.Fatalf("add after corrupt load: %v", err)
	}
}

func TestLoadDiscardsMalformedEntries(t *testing.T) {
	kv := memory.NewWith(map[string]string{storage.KeyTransactions: `[
		{"id": 1, "description": "ok", "amount": 10},
		{"id": 2, "description": "", "amount": 10},
		{"id": 3, "description": "zero", "amount": 0},
		{"id": 4, "description": "no amount"},
		{"description": "no id", "amount": 1},
		{"id": "5", "description": "string id", "amount": 1},
		{"id": 6, "description": "wrong type", "amount": "7"},
		{"id": 1, "description": "duplicate", "amount": 3},
		42,
		{"id": 7, "description": "ok too", "amount": -2.25}
	]`})
	s := newTestStore(t, kv)

	got := s.Transactions()
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 7 {
		t.Fatalf("unexpected entries after validation: %+v", got)
	}

	next, err := s.Add(context.Background(), "after", 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if next.ID <= 7 {
		t.Fatalf("new id %d must exceed loaded ids", next.ID)
	}
}

func TestLoadStorageErrorIsReturned(t *testing.T) {
	kv := &failingKV{Store: memory.New(), failGet: true}
	s := NewStore(kv, WithLogger(quietLogger()))
	if err := s.Load(context.Background()); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestSubscribersReceiveCommittedEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	var kinds []EventKind
	unsubscribe := s.Subscribe(func(_ context.Context, ev Event) {
		kinds = append(kinds, ev.Kind)
	})

	tx, _ := s.Add(ctx, "a", 1)
	_, _ = s.Add(ctx, "", 1) // rejected, no event
	_, _ = s.Remove(ctx, tx.ID)
	_, _ = s.Remove(ctx, tx.ID) // no-op, no event
	_ = s.ClearAll(ctx, false)  // declined, no event
	_ = s.ClearAll(ctx, true)

	want := []EventKind{EventAdded, EventRemoved, EventCleared}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}

	unsubscribe()
	_, _ = s.Add(ctx, "b", 1)
	if len(kinds) != len(want) {
		t.Fatal("unsubscribed callback still invoked")
	}
}

func TestSubscribersSeeCommitOrderUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu        sync.Mutex
		delivered []EventKind
	)
	s.Subscribe(func(_ context.Context, ev Event) {
		mu.Lock()
		delivered = append(delivered, ev.Kind)
		mu.Unlock()
		if ev.Kind == EventAdded {
			close(entered)
			<-release
		}
	})

	addDone := make(chan error, 1)
	go func() {
		_, err := s.Add(ctx, "Coffee", -3.5)
		addDone <- err
	}()
	<-entered

	clearDone := make(chan error, 1)
	go func() { clearDone <- s.ClearAll(ctx, true) }()

	select {
	case <-clearDone:
		t.Fatal("clear committed while the add event was still being delivered")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-addDone; err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := <-clearDone; err != nil {
		t.Fatalf("clear: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 2 || delivered[0] != EventAdded || delivered[1] != EventCleared {
		t.Fatalf("delivered %v, want [added cleared]", delivered)
	}
	if s.Len() != 0 {
		t.Fatalf("ledger len=%d, want 0", s.Len())
	}
}

func TestScenarioCoffeeAndSalary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	_, _ = s.Add(ctx, "Coffee", -3.50)
	_, _ = s.Add(ctx, "Salary", 2000)

	sum := s.Summary()
	if sum.Balance != 1996.50 || sum.Income != 2000 || sum.Expense != -3.50 {
		t.Fatalf("summary = %+v", sum)
	}
}
