// Package persist provides the store's persistence backends: Postgres for
// deployed instances, SQLite for single-binary local runs. Both write the
// same two named slots — the event list and the activity log — together.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

const (
	slotEvents = "search-events"
	slotLogs   = "activity-log"
)

// Postgres persists the state slots in a quarry_state table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quarry_state (
			slot text PRIMARY KEY,
			payload jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Load(ctx context.Context) ([]search.Event, []store.ActivityEntry, error) {
	rows, err := p.pool.Query(ctx, `SELECT slot, payload FROM quarry_state WHERE slot = ANY($1)`,
		[]string{slotEvents, slotLogs})
	if err != nil {
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	defer rows.Close()

	var events []search.Event
	var logs []store.ActivityEntry
	for rows.Next() {
		var slot string
		var payload []byte
		if err := rows.Scan(&slot, &payload); err != nil {
			return nil, nil, fmt.Errorf("scan state row: %w", err)
		}
		switch slot {
		case slotEvents:
			if err := json.Unmarshal(payload, &events); err != nil {
				return nil, nil, fmt.Errorf("decode events slot: %w", err)
			}
		case slotLogs:
			if err := json.Unmarshal(payload, &logs); err != nil {
				return nil, nil, fmt.Errorf("decode activity slot: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate state rows: %w", err)
	}
	return events, logs, nil
}

func (p *Postgres) Save(ctx context.Context, events []search.Event, logs []store.ActivityEntry) error {
	eventsPayload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	logsPayload, err := json.Marshal(logs)
	if err != nil {
		return fmt.Errorf("encode activity log: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for slot, payload := range map[string][]byte{slotEvents: eventsPayload, slotLogs: logsPayload} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quarry_state (slot, payload, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			slot, payload,
		); err != nil {
			return fmt.Errorf("write slot %s: %w", slot, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
