package summary

import (
	"testing"

	"github.com/MikeSquared-Agency/quarry/internal/transcript"
)

const twoSearchRaw = `{"mapping": {
	"n-late": {"id": "n-late", "message": {"id": "m-late", "create_time": 5, "author": {"role": "tool"}, "metadata": {
		"search_model_queries": {"queries": ["late query"]},
		"search_result_groups": [{"entries": [{"type": "search_result", "url": "https://late.test"}]}]
	}}},
	"n-early": {"id": "n-early", "message": {"id": "m-early", "create_time": 2, "author": {"role": "tool"}, "metadata": {
		"search_model_queries": {"queries": ["early query"]},
		"search_result_groups": [{"entries": [{"type": "search_result", "url": "https://early.test"}]}]
	}}}
}}`

func TestParse_OrdersByCreateTime(t *testing.T) {
	events := Parse(twoSearchRaw)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Queries[0].Query != "early query" || events[1].Queries[0].Query != "late query" {
		t.Errorf("event order = [%s %s], want [early query, late query]",
			events[0].Queries[0].Query, events[1].Queries[0].Query)
	}
	if events[0].Timestamp != 2000 {
		t.Errorf("first event timestamp = %d, want 2000", events[0].Timestamp)
	}
}

func TestParse_SkipsNodesWithoutResults(t *testing.T) {
	events := Parse(`{"mapping": {
		"n1": {"message": {"id": "m1", "create_time": 1, "metadata": {
			"search_model_queries": {"queries": ["resultless"]}
		}}}
	}}`)
	if len(events) != 0 {
		t.Errorf("expected no events for a resultless node, got %d", len(events))
	}
}

func TestParse_SkipsUntimedNodes(t *testing.T) {
	events := Parse(`{"mapping": {
		"n1": {"message": {"id": "m1", "metadata": {
			"search_result_groups": [{"entries": [{"type": "search_result", "url": "https://a.test"}]}]
		}}}
	}}`)
	if len(events) != 0 {
		t.Errorf("expected no events for an untimed node, got %d", len(events))
	}
}

func TestParse_SentinelQueryCarriesResults(t *testing.T) {
	events := Parse(`{"mapping": {
		"n1": {"message": {"id": "m1", "create_time": 1, "metadata": {
			"search_result_groups": [{"entries": [{"type": "search_result", "url": "https://a.test"}]}]
		}}}
	}}`)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if len(ev.Queries) != 1 || ev.Queries[0].Query != NoQuery {
		t.Fatalf("queries = %v, want the sentinel", ev.Queries)
	}
	if len(ev.Queries[0].Results) != 1 {
		t.Errorf("sentinel query should still hold the results, got %d", len(ev.Queries[0].Results))
	}
}

func TestEventID_Fallback(t *testing.T) {
	ts := 1700000000.25
	msg := &transcript.Message{CreateTime: &ts}
	if got := EventID(msg); got != "evt-1700000000.25" {
		t.Errorf("EventID = %q, want evt-1700000000.25", got)
	}
	msg.ID = "m1"
	if got := EventID(msg); got != "m1" {
		t.Errorf("EventID = %q, want m1", got)
	}
}

func TestParse_DistributesAcrossQueries(t *testing.T) {
	events := Parse(`{"mapping": {
		"n1": {"message": {"id": "m1", "create_time": 1, "metadata": {
			"search_model_queries": {"queries": ["first", "second"]},
			"search_result_groups": [{"entries": [
				{"type": "search_result", "url": "https://a.test", "ref_id": {"ref_index": 0}},
				{"type": "search_result", "url": "https://b.test", "ref_id": {"ref_index": 1}},
				{"type": "search_result", "url": "https://c.test", "ref_id": {"ref_index": 9}}
			]}]
		}}}
	}}`)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	qs := events[0].Queries
	if len(qs) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(qs))
	}
	if len(qs[0].Results) != 2 || len(qs[1].Results) != 1 {
		t.Errorf("result split = %d/%d, want 2/1", len(qs[0].Results), len(qs[1].Results))
	}
	if qs[1].Results[0].URL != "https://c.test" {
		t.Errorf("second query got %q, want https://c.test", qs[1].Results[0].URL)
	}
}
