// Package processor wires captured network observations into the event
// store: decode, mine, upsert. The capture layer only ever submits into it;
// the core never calls back out.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/MikeSquared-Agency/quarry/internal/hermes"
	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/store"
)

// Publisher is the outbound message channel to the capture collaborator.
type Publisher interface {
	Publish(subject string, data any) error
}

type Processor struct {
	store    *store.Store
	activity *store.ActivityLog
	pub      Publisher
	logger   *slog.Logger
}

func New(s *store.Store, activity *store.ActivityLog, pub Publisher, logger *slog.Logger) *Processor {
	return &Processor{store: s, activity: activity, pub: pub, logger: logger}
}

// HandleCaptureStored is the NATS handler for hermes.SubjectCaptureStored.
// Malformed payloads and unparseable transcripts degrade to log entries;
// nothing here raises.
func (p *Processor) HandleCaptureStored(subject string, data []byte) {
	ctx := context.Background()

	var capture search.Capture
	if err := json.Unmarshal(data, &capture); err != nil {
		p.logger.Error("failed to parse capture payload", "error", err)
		p.activity.Add("error", "capture", "malformed capture payload", map[string]any{"error": err.Error()})
		return
	}

	p.Submit(ctx, capture)
}

// Submit mines one capture and upserts every resulting event.
func (p *Processor) Submit(ctx context.Context, capture search.Capture) int {
	events := search.ParseCapture(capture)
	if len(events) == 0 {
		p.activity.Add("info", "parse", "capture held no search events", map[string]any{"url": capture.URL})
		return 0
	}
	for _, ev := range events {
		if err := p.store.Upsert(ctx, ev); err != nil {
			p.logger.Error("upsert failed", "event_id", ev.ID, "error", err)
			return 0
		}
	}
	p.logger.Info("capture processed", "url", capture.URL, "events", len(events))
	p.activity.Add("info", "capture", "capture processed", map[string]any{
		"url":    capture.URL,
		"events": len(events),
	})
	return len(events)
}

// RequestReload asks the capture collaborator to refresh its source.
func (p *Processor) RequestReload() error {
	p.activity.Add("info", "capture", "reload requested", nil)
	return p.pub.Publish(hermes.SubjectReloadRequested, map[string]any{})
}
