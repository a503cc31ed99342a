package stats

import "github.com/MikeSquared-Agency/quarry/internal/search"

// SampleLink is one representative result for a query row.
type SampleLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// QuerySummary is the per-query roll-up across stored events.
type QuerySummary struct {
	Query        string      `json:"query"`
	Count        int         `json:"count"`
	TotalResults int         `json:"totalResults"`
	LastSeen     int64       `json:"lastSeen"`
	Sample       *SampleLink `json:"sampleLink,omitempty"`
}

// Summarize rolls stored events up into one row per query text, in first-seen
// order.
func Summarize(events []search.Event) []QuerySummary {
	rows := make(map[string]*QuerySummary)
	var order []string
	for _, ev := range events {
		row, ok := rows[ev.Query]
		if !ok {
			row = &QuerySummary{Query: ev.Query}
			rows[ev.Query] = row
			order = append(order, ev.Query)
		}
		row.Count++
		row.TotalResults += ev.ResultCount
		if ev.CompletedAt > row.LastSeen {
			row.LastSeen = ev.CompletedAt
		}
		if row.Sample == nil && len(ev.Results) > 0 {
			row.Sample = &SampleLink{Title: ev.Results[0].Title, URL: ev.Results[0].URL}
		}
	}
	out := make([]QuerySummary, 0, len(order))
	for _, q := range order {
		out = append(out, *rows[q])
	}
	return out
}
