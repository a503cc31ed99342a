package summary

import "github.com/MikeSquared-Agency/quarry/internal/transcript"

// maxAncestorDepth bounds the structural fallback walk.
const maxAncestorDepth = 3

// readQueries extracts query strings from a node's own metadata. Model
// queries are authoritative when present; otherwise search_queries items of
// type "search" count. Non-string and empty entries are discarded.
func readQueries(meta *transcript.Metadata) []string {
	if meta == nil {
		return nil
	}
	if meta.ModelQueries != nil {
		var queries []string
		for _, v := range meta.ModelQueries.Queries {
			if s, ok := v.(string); ok && s != "" {
				queries = append(queries, s)
			}
		}
		if len(queries) > 0 {
			return queries
		}
	}
	var queries []string
	for _, item := range meta.SearchQueries {
		if item.Type == "search" && item.Q != "" {
			queries = append(queries, item.Q)
		}
	}
	return queries
}

func nodeMetadata(n *transcript.Node) *transcript.Metadata {
	if n == nil || n.Message == nil {
		return nil
	}
	return n.Message.Metadata
}

// turnQueries scans the mapping in document order for a node sharing the same
// turn exchange id that carries queries of its own. Search initiation and
// result delivery are frequently different nodes within one exchange.
func turnQueries(node *transcript.Node, m transcript.Mapping) []string {
	turnID := turnIDOf(node)
	if turnID == "" {
		return nil
	}
	for _, n := range m.Ordered() {
		meta := nodeMetadata(n)
		if meta == nil || meta.TurnExchangeID != turnID {
			continue
		}
		if queries := readQueries(meta); len(queries) > 0 {
			return queries
		}
	}
	return nil
}

// ancestorQueries walks parent references up to maxAncestorDepth levels, a
// structural fallback for transcripts without turn identifiers.
func ancestorQueries(node *transcript.Node, m transcript.Mapping) []string {
	current := m.ParentOf(node)
	for depth := 0; depth < maxAncestorDepth && current != nil; depth++ {
		if queries := readQueries(nodeMetadata(current)); len(queries) > 0 {
			return queries
		}
		current = m.ParentOf(current)
	}
	return nil
}

// ResolveQueries determines the query text(s) that explain a node's results:
// the node's own metadata first, then the turn group, then ancestors. The
// returned list is never empty; NoQuery is the final fallback.
func ResolveQueries(node *transcript.Node, m transcript.Mapping) []string {
	if queries := readQueries(nodeMetadata(node)); len(queries) > 0 {
		return queries
	}
	if queries := turnQueries(node, m); len(queries) > 0 {
		return queries
	}
	if queries := ancestorQueries(node, m); len(queries) > 0 {
		return queries
	}
	return []string{NoQuery}
}

func turnIDOf(node *transcript.Node) string {
	meta := nodeMetadata(node)
	if meta == nil {
		return ""
	}
	return meta.TurnExchangeID
}

// Classify labels a node's event: a turn containing a search-display signal
// initiated a search, a turn without one reuses prior results, and a node
// without a turn id cannot be classified.
func Classify(node *transcript.Node, m transcript.Mapping) EventType {
	turnID := turnIDOf(node)
	if turnID == "" {
		return EventUnknown
	}
	for _, n := range m.Ordered() {
		meta := nodeMetadata(n)
		if meta == nil || meta.TurnExchangeID != turnID {
			continue
		}
		if meta.SearchDisplayString != "" {
			return EventSearch
		}
	}
	return EventFollowUp
}
