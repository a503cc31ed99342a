package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/MikeSquared-Agency/quarry/internal/search"
)

// memPersistence is an in-memory Persistence that counts calls and can be
// told to fail.
type memPersistence struct {
	mu      sync.Mutex
	events  []search.Event
	logs    []ActivityEntry
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func (m *memPersistence) Load(ctx context.Context) ([]search.Event, []ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, nil, m.loadErr
	}
	return append([]search.Event(nil), m.events...), append([]ActivityEntry(nil), m.logs...), nil
}

func (m *memPersistence) Save(ctx context.Context, events []search.Event, logs []ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.events = append([]search.Event(nil), events...)
	m.logs = append([]ActivityEntry(nil), logs...)
	return nil
}

func newTestStore(t *testing.T, p Persistence, opts ...Option) *Store {
	t.Helper()
	s := New(p, NewActivityLog(), slog.Default(), opts...)
	t.Cleanup(s.Close)
	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersistence{})

	if err := s.Upsert(ctx, search.Event{ID: "e1", Query: "alpha"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	events, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("events = %v, want [e1]", events)
	}
}

func TestStore_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersistence{})

	s.Upsert(ctx, search.Event{ID: "e1", Query: "old"})
	s.Upsert(ctx, search.Event{ID: "e1", Query: "new"})
	events, _ := s.Get(ctx)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Query != "new" {
		t.Errorf("query = %q, want new", events[0].Query)
	}
}

func TestStore_CapTrimsOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersistence{}, WithCap(3))

	for i := 0; i < 5; i++ {
		s.Upsert(ctx, search.Event{ID: fmt.Sprintf("e%d", i)})
	}
	events, _ := s.Get(ctx)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []string{"e2", "e3", "e4"}
	for i, ev := range events {
		if ev.ID != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, ev.ID, want[i])
		}
	}
}

func TestStore_ConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	s := newTestStore(t, p)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Upsert(ctx, search.Event{ID: "left"})
	}()
	go func() {
		defer wg.Done()
		s.Upsert(ctx, search.Event{ID: "right"})
	}()
	wg.Wait()

	events, _ := s.Get(ctx)
	if len(events) != 2 {
		t.Fatalf("expected both events, got %d", len(events))
	}
	ids := map[string]bool{events[0].ID: true, events[1].ID: true}
	if !ids["left"] || !ids["right"] {
		t.Errorf("ids = %v, want left and right", ids)
	}
	p.mu.Lock()
	loads := p.loads
	p.mu.Unlock()
	if loads != 1 {
		t.Errorf("hydration ran %d times, want exactly 1", loads)
	}
}

func TestStore_HydratesPersistedState(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{events: []search.Event{{ID: "persisted"}}}
	s := newTestStore(t, p)

	events, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(events) != 1 || events[0].ID != "persisted" {
		t.Errorf("events = %v, want [persisted]", events)
	}
}

func TestStore_FailedLoadRetriesNextOp(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{loadErr: errors.New("db down")}
	s := newTestStore(t, p)

	if events, err := s.Get(ctx); err != nil || len(events) != 0 {
		t.Fatalf("get during outage: events=%v err=%v", events, err)
	}

	p.mu.Lock()
	p.loadErr = nil
	p.events = []search.Event{{ID: "recovered"}}
	p.mu.Unlock()

	events, _ := s.Get(ctx)
	if len(events) != 1 || events[0].ID != "recovered" {
		t.Errorf("after recovery events = %v, want [recovered]", events)
	}
}

func TestStore_FailedSaveKeepsOldList(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	s := newTestStore(t, p)

	s.Upsert(ctx, search.Event{ID: "e1"})

	p.mu.Lock()
	p.saveErr = errors.New("disk full")
	p.mu.Unlock()

	if err := s.Upsert(ctx, search.Event{ID: "e2"}); err != nil {
		t.Fatalf("upsert should swallow persist errors, got %v", err)
	}
	events, _ := s.Get(ctx)
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("failed save must not mutate the list, got %v", events)
	}

	p.mu.Lock()
	p.saveErr = nil
	p.mu.Unlock()
	s.Upsert(ctx, search.Event{ID: "e3"})
	events, _ = s.Get(ctx)
	if len(events) != 2 {
		t.Errorf("worker should keep draining after a failed save, got %v", events)
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	s := newTestStore(t, p)

	s.Upsert(ctx, search.Event{ID: "e1"})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	events, _ := s.Get(ctx)
	if len(events) != 0 {
		t.Errorf("expected empty list after clear, got %v", events)
	}
	p.mu.Lock()
	persisted := len(p.events)
	p.mu.Unlock()
	if persisted != 0 {
		t.Errorf("clear should persist the empty list, %d events remain", persisted)
	}
}

func TestStore_NotifierSeesEachWrite(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var sizes []int
	notify := func(events []search.Event) {
		mu.Lock()
		sizes = append(sizes, len(events))
		mu.Unlock()
	}
	s := newTestStore(t, &memPersistence{}, WithNotifier(notify))

	s.Upsert(ctx, search.Event{ID: "e1"})
	s.Upsert(ctx, search.Event{ID: "e2"})

	mu.Lock()
	defer mu.Unlock()
	if len(sizes) != 2 || sizes[0] != 1 || sizes[1] != 2 {
		t.Errorf("notifier saw %v, want [1 2]", sizes)
	}
}

func TestStore_DuplicatePredicateDropsMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &memPersistence{}, WithDuplicatePredicate(SameResponseBody))

	s.Upsert(ctx, search.Event{ID: "e1", RawResponse: "body"})
	s.Upsert(ctx, search.Event{ID: "e2", RawResponse: "body"})
	events, _ := s.Get(ctx)
	if len(events) != 1 || events[0].ID != "e1" {
		t.Errorf("same-body event should be dropped, got %v", events)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := newTestStore(t, &memPersistence{})

	// Pin the worker inside a long operation so the next submission blocks.
	entered := make(chan struct{})
	release := make(chan struct{})
	go s.submit(context.Background(), func() {
		close(entered)
		<-release
	})
	<-entered
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Upsert(ctx, search.Event{ID: "e1"}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestActivityLog_AddAndTrim(t *testing.T) {
	l := NewActivityLog()
	for i := 0; i < 305; i++ {
		l.Add("info", "capture", fmt.Sprintf("entry %d", i), nil)
	}
	entries := l.Entries()
	if len(entries) != 300 {
		t.Fatalf("expected 300 entries, got %d", len(entries))
	}
	if entries[0].Message != "entry 5" {
		t.Errorf("oldest entry = %q, want entry 5", entries[0].Message)
	}
	if entries[0].ID == "" || entries[0].Timestamp == 0 {
		t.Errorf("entry missing id or timestamp: %+v", entries[0])
	}
}

func TestActivityLog_ClearAndHydrate(t *testing.T) {
	l := NewActivityLog()
	l.Add("info", "ui", "before", nil)
	l.Clear()
	if got := l.Entries(); len(got) != 0 {
		t.Fatalf("expected empty log, got %d", len(got))
	}
	l.Hydrate([]ActivityEntry{{ID: "a", Message: "restored"}})
	entries := l.Entries()
	if len(entries) != 1 || entries[0].Message != "restored" {
		t.Errorf("hydrated entries = %v", entries)
	}
}

func TestStore_PersistActivity(t *testing.T) {
	ctx := context.Background()
	p := &memPersistence{}
	activity := NewActivityLog()
	s := New(p, activity, slog.Default())
	t.Cleanup(s.Close)

	activity.Add("info", "ui", "panel opened", nil)
	if err := s.PersistActivity(ctx); err != nil {
		t.Fatalf("persist activity: %v", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.logs) != 1 || p.logs[0].Message != "panel opened" {
		t.Errorf("persisted logs = %v", p.logs)
	}
}
