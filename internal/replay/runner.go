package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

// Runner replays captures into the event store.
type Runner struct {
	store  *store.Store
	logger *slog.Logger
}

func NewRunner(s *store.Store, logger *slog.Logger) *Runner {
	return &Runner{store: s, logger: logger}
}

// ReplayFile parses a HAR file and upserts every mined event, returning the
// number of events stored.
func (r *Runner) ReplayFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	captures, err := ParseHAR(f)
	if err != nil {
		return 0, err
	}
	return r.Replay(ctx, captures)
}

// Replay mines each capture and upserts the results in order.
func (r *Runner) Replay(ctx context.Context, captures []search.Capture) (int, error) {
	stored := 0
	for _, capture := range captures {
		for _, ev := range search.ParseCapture(capture) {
			if err := r.store.Upsert(ctx, ev); err != nil {
				return stored, fmt.Errorf("upsert %s: %w", ev.ID, err)
			}
			stored++
		}
	}
	r.logger.Info("replay complete", "captures", len(captures), "events", stored)
	return stored, nil
}
