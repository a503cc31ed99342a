// Package dedup reconciles overlapping captures into one consistent event
// view: id-level dedup across captures, then query-level dedup across events.
package dedup

import (
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/summary"
)

// fingerprint digests a result set as its sorted, concatenated URLs.
func fingerprint(results []summary.Result) string {
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	sort.Strings(urls)
	return strings.Join(urls, "|")
}

// shouldKeep decides whether a query survives dedup. A query with an empty
// result set is kept only while its text has never been seen with results; a
// non-empty query is dropped when its fingerprint matches the most recent one
// recorded for that text.
func shouldKeep(q summary.Query, seen map[string]string) bool {
	key := strings.ToLower(strings.TrimSpace(q.Query))
	prev, seenBefore := seen[key]
	if len(q.Results) == 0 {
		return !seenBefore
	}
	fp := fingerprint(q.Results)
	if seenBefore && prev == fp {
		return false
	}
	seen[key] = fp
	return true
}

// DedupeQueries removes duplicate queries across events: empty repeats and
// exact result-set repeats. Events left with no queries are dropped entirely.
func DedupeQueries(events []summary.Event) []summary.Event {
	seen := make(map[string]string)
	var out []summary.Event
	for _, ev := range events {
		var queries []summary.Query
		for _, q := range ev.Queries {
			if shouldKeep(q, seen) {
				queries = append(queries, q)
			}
		}
		if len(queries) == 0 {
			continue
		}
		ev.Queries = queries
		out = append(out, ev)
	}
	return out
}

// ParseAndDedupe re-parses stored events' raw responses into structured
// events, keeping the first event seen per id (the same node can appear in
// several overlapping captures), then dedupes queries across them.
func ParseAndDedupe(events []search.Event) []summary.Event {
	seen := make(map[string]bool)
	var parsed []summary.Event
	for _, e := range events {
		for _, ev := range summary.Parse(e.RawResponse) {
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true
			parsed = append(parsed, ev)
		}
	}
	return DedupeQueries(parsed)
}
