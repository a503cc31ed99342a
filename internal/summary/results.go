package summary

import (
	"bytes"
	"encoding/json"

	"github.com/MikeSquared-Agency/quarry/internal/transcript"
)

// entryFields is the tolerant shape of one raw result entry. Loosely typed
// fields survive wrong-typed values in the source; readers pick what they can.
type entryFields struct {
	Type        string          `json:"type"`
	URL         any             `json:"url"`
	Title       any             `json:"title"`
	Snippet     any             `json:"snippet"`
	PubDate     json.RawMessage `json:"pub_date"`
	Attribution any             `json:"attribution"`
	RefID       any             `json:"ref_id"`
}

// ExtractResults flattens every group's entries into normalized results,
// keeping only entries with type "search_result" and a string url.
func ExtractResults(groups []transcript.ResultGroup) []Result {
	var results []Result
	for _, group := range groups {
		for _, raw := range group.Entries {
			if r, ok := buildResult(raw, group); ok {
				results = append(results, r)
			}
		}
	}
	return results
}

func buildResult(raw json.RawMessage, group transcript.ResultGroup) (Result, bool) {
	var entry entryFields
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Result{}, false
	}
	url, ok := entry.URL.(string)
	if entry.Type != "search_result" || !ok {
		return Result{}, false
	}

	title := url
	if s, ok := entry.Title.(string); ok && s != "" {
		title = s
	}
	// Full snippet text; never sliced or truncated.
	snippet := ""
	if s, ok := entry.Snippet.(string); ok {
		snippet = s
	}
	// The group's domain wins over the entry's own attribution.
	attribution := group.Domain
	if attribution == "" {
		if s, ok := entry.Attribution.(string); ok {
			attribution = s
		}
	}
	var refID map[string]any
	if m, ok := entry.RefID.(map[string]any); ok {
		refID = m
	}

	return Result{
		Title:       title,
		URL:         url,
		Snippet:     snippet,
		Attribution: attribution,
		PubDate:     pubDate(entry.PubDate),
		RefID:       refID,
		Type:        "organic",
		RawJSON:     indentRaw(raw),
	}, true
}

// pubDate keeps a number or an explicit null; anything else becomes absent.
func pubDate(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return json.RawMessage("null")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	return raw
}

func indentRaw(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
