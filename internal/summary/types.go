// Package summary extracts structured Event > Query > Results records from
// raw transcript payloads: the query resolver, result extractor, result
// distributor, event-type classifier and event assembler.
package summary

import "encoding/json"

// NoQuery is the sentinel query used when no query signal can be resolved.
const NoQuery = "no search query identified"

// Result is the normalized projection of one raw search-result entry.
// Snippet carries the full source text, never truncated.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Attribution string `json:"attribution,omitempty"`

	// PubDate is three-valued: a number, an explicit null, or absent (nil).
	// Raw JSON keeps null and absent distinct through re-serialization.
	PubDate json.RawMessage `json:"pub_date,omitempty"`

	// RefID is the entry's opaque reference bag; ref_index inside it drives
	// result distribution.
	RefID map[string]any `json:"ref_id,omitempty"`

	Type string `json:"type,omitempty"`

	// RawJSON is a verbatim (re-indented) copy of the source entry.
	RawJSON string `json:"rawJson"`
}

// Query pairs one resolved query string with the results attributed to it.
type Query struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// EventType labels whether a turn initiated a search or reused prior results.
type EventType string

const (
	EventSearch   EventType = "search"
	EventFollowUp EventType = "follow-up"
	EventUnknown  EventType = "unknown"
)

// Event is a node's extracted, query-attributed result set.
type Event struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"` // milliseconds
	Queries   []Query   `json:"queries"`
	EventType EventType `json:"eventType,omitempty"`
	TurnID    string    `json:"turnId,omitempty"`
}
