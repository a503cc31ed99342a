// Package search defines the capture boundary and the stored search-event
// record built from it.
package search

import "github.com/MikeSquared-Agency/quarry/internal/summary"

// Capture is one network observation delivered by the browser-side
// collaborator. ResponseBody is the raw transcript payload.
type Capture struct {
	URL          string `json:"url"`
	Method       string `json:"method"`
	Status       int    `json:"status"`
	RequestBody  string `json:"requestBody,omitempty"`
	ResponseBody string `json:"responseBody,omitempty"`
	StartedAt    int64  `json:"startedAt"`
	CompletedAt  int64  `json:"completedAt"`
}

// Event is the persisted form of one mined search event. RawResponse keeps
// the capture's transcript payload so read-side views can re-derive the full
// structure at any time.
type Event struct {
	ID          string            `json:"id"`
	Query       string            `json:"query"`
	URL         string            `json:"url"`
	Method      string            `json:"method"`
	Status      int               `json:"status"`
	ResultCount int               `json:"resultCount"`
	Results     []summary.Result  `json:"results"`
	RawResponse string            `json:"rawResponse,omitempty"`
	StartedAt   int64             `json:"startedAt"`
	CompletedAt int64             `json:"completedAt"`
	EventType   summary.EventType `json:"eventType,omitempty"`
	TurnID      string            `json:"turnId,omitempty"`
}
