package search

import (
	"strings"

	"github.com/MikeSquared-Agency/quarry/internal/summary"
	"github.com/MikeSquared-Agency/quarry/internal/transcript"
)

// ParseCapture mines every search event out of one captured response. Only
// tool nodes are walked on this write path: they are the authoritative
// result carriers, and assistant nodes caching the same groups would
// double-count. Events come back sorted by creation time.
func ParseCapture(capture Capture) []Event {
	m := transcript.Parse(capture.ResponseBody)

	var events []Event
	for _, node := range m.ToolNodes() {
		msg := node.Message
		var groups []transcript.ResultGroup
		if msg.Metadata != nil {
			groups = msg.Metadata.ResultGroups
		}
		results := summary.ExtractResults(groups)
		if len(results) == 0 {
			continue
		}

		ms := int64(*msg.CreateTime * 1000)
		resolved := summary.ResolveQueries(node, m)
		events = append(events, Event{
			ID:          summary.EventID(msg),
			Query:       strings.Join(resolved, ", "),
			URL:         capture.URL,
			Method:      capture.Method,
			Status:      capture.Status,
			ResultCount: len(results),
			Results:     results,
			RawResponse: capture.ResponseBody,
			StartedAt:   ms,
			CompletedAt: ms,
			EventType:   summary.Classify(node, m),
			TurnID:      turnID(node),
		})
	}
	return events
}

func turnID(node *transcript.Node) string {
	if node.Message == nil || node.Message.Metadata == nil {
		return ""
	}
	return node.Message.Metadata.TurnExchangeID
}
