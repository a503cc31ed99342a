package transcript

import "encoding/json"

// Node is one entry in a transcript mapping. Nodes reference their parent by
// id only; the Mapping is the sole owner of every node.
type Node struct {
	ID      string   `json:"id"`
	Parent  string   `json:"parent"`
	Message *Message `json:"message"`

	// seq is the node's position in the mapping object's document order.
	// Go maps iterate randomly, so the order the source document gave us
	// is recorded at parse time and used for stable iteration.
	seq int
}

// Message is the optional message record carried by a node.
type Message struct {
	ID         string    `json:"id"`
	CreateTime *float64  `json:"create_time"` // seconds since epoch
	Author     *Author   `json:"author"`
	Metadata   *Metadata `json:"metadata"`
}

type Author struct {
	Role string `json:"role"`
}

// Metadata holds the search-related fields a message may carry. Every field
// is optional; absent fields default at the point of use.
type Metadata struct {
	ModelQueries        *ModelQueries `json:"search_model_queries"`
	SearchQueries       []QueryItem   `json:"search_queries"`
	ResultGroups        []ResultGroup `json:"search_result_groups"`
	TurnExchangeID      string        `json:"turn_exchange_id"`
	SearchDisplayString string        `json:"search_display_string"`
}

// ModelQueries is an ordered list of query strings. Entries are typed as any
// because the source document occasionally carries non-string values; readers
// discard those.
type ModelQueries struct {
	Queries []any `json:"queries"`
}

// QueryItem is a typed query entry; only type "search" items count.
type QueryItem struct {
	Type string `json:"type"`
	Q    string `json:"q"`
}

// ResultGroup is a group of raw result entries. Entries stay as raw JSON so
// the extractor can keep a verbatim copy of each one.
type ResultGroup struct {
	Domain  string            `json:"domain"`
	Entries []json.RawMessage `json:"entries"`
}
