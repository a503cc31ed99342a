package summary

import (
	"strconv"

	"github.com/MikeSquared-Agency/quarry/internal/transcript"
)

// EventID returns a node's event identity: the message id, or an id
// synthesized from the creation time when the message has none.
func EventID(msg *transcript.Message) string {
	if msg.ID != "" {
		return msg.ID
	}
	return "evt-" + strconv.FormatFloat(*msg.CreateTime, 'f', -1, 64)
}

// toEvent composes one Event from a node: extracted results split across the
// resolved queries. Nodes without results or without a numeric creation time
// produce no event.
func toEvent(node *transcript.Node, m transcript.Mapping) (Event, bool) {
	msg := node.Message
	if msg == nil || msg.CreateTime == nil {
		return Event{}, false
	}
	var groups []transcript.ResultGroup
	if msg.Metadata != nil {
		groups = msg.Metadata.ResultGroups
	}
	results := ExtractResults(groups)
	if len(results) == 0 {
		return Event{}, false
	}

	resolved := ResolveQueries(node, m)
	buckets := Distribute(resolved, results)
	queries := make([]Query, len(resolved))
	for i, q := range resolved {
		queries[i] = Query{Query: q, Results: buckets[i]}
	}

	return Event{
		ID:        EventID(msg),
		Timestamp: int64(*msg.CreateTime * 1000),
		Queries:   queries,
		EventType: Classify(node, m),
		TurnID:    turnIDOf(node),
	}, true
}

// MapToEvents assembles an Event for every qualifying node, in node order.
func MapToEvents(nodes []*transcript.Node, m transcript.Mapping) []Event {
	var events []Event
	for _, node := range nodes {
		if ev, ok := toEvent(node, m); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Parse extracts structured events straight from a raw transcript payload.
// All timed nodes participate; this is the read-side view, where id-level
// dedup downstream absorbs assistant-node echoes of tool results.
func Parse(raw string) []Event {
	m := transcript.Parse(raw)
	return MapToEvents(m.Nodes(), m)
}
