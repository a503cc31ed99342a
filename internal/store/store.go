// Package store holds the serialized event log: a single-consumer mailbox
// that hydrates from persistence on demand, applies upserts in strict
// submission order and notifies observers after each successful write.
package store

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/quarry/internal/search"
)

// DefaultCap bounds the event log to the most recent entries by upsert order.
const DefaultCap = 200

// Persistence loads and saves the two named state slots: the event list and
// the activity log. Implementations live in internal/persist.
type Persistence interface {
	Load(ctx context.Context) (events []search.Event, logs []ActivityEntry, err error)
	Save(ctx context.Context, events []search.Event, logs []ActivityEntry) error
}

// Notifier observes the event list after each successful write.
type Notifier func(events []search.Event)

// DuplicatePredicate reports whether an incoming event duplicates an existing
// one and should be dropped instead of applied. Two duplicate-handling
// policies exist historically; the default (nil) replaces by id only.
type DuplicatePredicate func(existing, incoming search.Event) bool

// SameResponseBody is the stricter policy: an event whose raw response body
// matches an existing event's is a duplicate even under a different id.
func SameResponseBody(existing, incoming search.Event) bool {
	return existing.RawResponse != "" && existing.RawResponse == incoming.RawResponse
}

// Store serializes all access to the event list through one worker
// goroutine. The list is exclusively owned by the store; readers get copies.
type Store struct {
	persist  Persistence
	activity *ActivityLog
	notify   Notifier
	logger   *slog.Logger
	isDup    DuplicatePredicate
	cap      int

	ops chan op

	// worker-owned state
	events   []search.Event
	hydrated bool
}

type op struct {
	run  func()
	done chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithCap overrides the event-list bound.
func WithCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithNotifier registers the observer called after each successful write.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithDuplicatePredicate selects the alternate duplicate-handling policy.
func WithDuplicatePredicate(p DuplicatePredicate) Option {
	return func(s *Store) { s.isDup = p }
}

// New creates a Store and starts its worker. Close releases the worker.
func New(p Persistence, activity *ActivityLog, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		persist:  p,
		activity: activity,
		logger:   logger,
		cap:      DefaultCap,
		ops:      make(chan op),
	}
	for _, o := range opts {
		o(s)
	}
	go s.loop()
	return s
}

func (s *Store) loop() {
	for o := range s.ops {
		o.run()
		close(o.done)
	}
}

// Close stops the worker. Pending calls complete first.
func (s *Store) Close() {
	close(s.ops)
}

// submit runs fn on the worker and waits for it. Submission order is
// execution order; an operation sees the fully-completed effects of every
// earlier one.
func (s *Store) submit(ctx context.Context, fn func()) error {
	o := op{run: fn, done: make(chan struct{})}
	select {
	case s.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-o.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensureHydrated loads persisted state exactly once. Worker-only. A failed
// load is logged and leaves the store unhydrated so a later operation
// retries.
func (s *Store) ensureHydrated(ctx context.Context) bool {
	if s.hydrated {
		return true
	}
	events, logs, err := s.persist.Load(ctx)
	if err != nil {
		s.logger.Error("store hydration failed", "error", err)
		return false
	}
	s.events = events
	if s.activity != nil {
		s.activity.Hydrate(logs)
	}
	s.hydrated = true
	return true
}

// Get returns the current event list, hydrating first if needed.
func (s *Store) Get(ctx context.Context) ([]search.Event, error) {
	var out []search.Event
	err := s.submit(ctx, func() {
		if !s.ensureHydrated(ctx) {
			return
		}
		out = snapshot(s.events)
	})
	return out, err
}

// Upsert applies one event: any existing event with the same id is replaced,
// the list is trimmed to the cap, and the result is persisted before
// observers are notified. A persistence failure is logged and swallowed —
// the call completes without the write, and the worker keeps draining.
func (s *Store) Upsert(ctx context.Context, event search.Event) error {
	return s.submit(ctx, func() {
		if !s.ensureHydrated(ctx) {
			return
		}
		if s.isDup != nil {
			for _, existing := range s.events {
				if s.isDup(existing, event) {
					return
				}
			}
		}
		next := make([]search.Event, 0, len(s.events)+1)
		for _, e := range s.events {
			if e.ID != event.ID {
				next = append(next, e)
			}
		}
		if len(next) > s.cap-1 {
			next = next[len(next)-(s.cap-1):]
		}
		next = append(next, event)
		s.commit(ctx, next)
	})
}

// Clear replaces the event list with an empty one and persists it.
func (s *Store) Clear(ctx context.Context) error {
	return s.submit(ctx, func() {
		if !s.ensureHydrated(ctx) {
			return
		}
		s.commit(ctx, nil)
	})
}

// commit persists the candidate list and, on success, adopts it and notifies
// observers. Worker-only.
func (s *Store) commit(ctx context.Context, next []search.Event) {
	var logs []ActivityEntry
	if s.activity != nil {
		logs = s.activity.Entries()
	}
	if err := s.persist.Save(ctx, next, logs); err != nil {
		s.logger.Error("store persist failed", "error", err)
		return
	}
	s.events = next
	if s.notify != nil {
		s.notify(snapshot(s.events))
	}
}

// PersistActivity writes the current state without mutating the event list,
// so activity-log changes reach the persisted slots.
func (s *Store) PersistActivity(ctx context.Context) error {
	return s.submit(ctx, func() {
		if !s.ensureHydrated(ctx) {
			return
		}
		s.commit(ctx, s.events)
	})
}

func snapshot(events []search.Event) []search.Event {
	out := make([]search.Event, len(events))
	copy(out, events)
	return out
}
