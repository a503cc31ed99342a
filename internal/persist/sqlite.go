package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

// SQLite persists the state slots in a local database file; no cgo required.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS quarry_state (
			slot TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) ([]search.Event, []store.ActivityEntry, error) {
	var events []search.Event
	var logs []store.ActivityEntry

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM quarry_state WHERE slot = ?`, slotEvents).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, nil, fmt.Errorf("load events slot: %w", err)
	default:
		if err := json.Unmarshal([]byte(payload), &events); err != nil {
			return nil, nil, fmt.Errorf("decode events slot: %w", err)
		}
	}

	err = s.db.QueryRowContext(ctx, `SELECT payload FROM quarry_state WHERE slot = ?`, slotLogs).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, nil, fmt.Errorf("load activity slot: %w", err)
	default:
		if err := json.Unmarshal([]byte(payload), &logs); err != nil {
			return nil, nil, fmt.Errorf("decode activity slot: %w", err)
		}
	}
	return events, logs, nil
}

func (s *SQLite) Save(ctx context.Context, events []search.Event, logs []store.ActivityEntry) error {
	eventsPayload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	logsPayload, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encode activity log: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for slot, payload := range map[string][]byte{slotEvents: eventsPayload, slotLogs: logsPayload} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quarry_state (slot, payload, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
			slot, string(payload), now,
		); err != nil {
			return fmt.Errorf("write slot %s: %w", slot, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
