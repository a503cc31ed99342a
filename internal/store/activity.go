package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// activityCap bounds the activity log to the most recent entries.
const activityCap = 300

// ActivityEntry is one line of the session activity log surfaced to the UI
// collaborator alongside the event list.
type ActivityEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"` // "info", "warn", "error"
	Tag       string         `json:"tag"`   // "capture", "parse", "ui", "storage"
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp int64          `json:"timestamp"` // milliseconds
}

// ActivityLog is a bounded, concurrency-safe log of recent activity.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

// Add appends an entry, trimming to the cap.
func (l *ActivityLog) Add(level, tag, message string, details map[string]any) ActivityEntry {
	entry := ActivityEntry{
		ID:        uuid.NewString(),
		Level:     level,
		Tag:       tag,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UnixMilli(),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) > activityCap-1 {
		l.entries = l.entries[len(l.entries)-(activityCap-1):]
	}
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a copy of the current log.
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear empties the log.
func (l *ActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Hydrate replaces the log with persisted entries, keeping the newest cap.
func (l *ActivityLog) Hydrate(entries []ActivityEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(entries) > activityCap {
		entries = entries[len(entries)-activityCap:]
	}
	l.entries = make([]ActivityEntry, len(entries))
	copy(l.entries, entries)
}
