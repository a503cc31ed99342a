package transcript

import (
	"encoding/json"
	"sort"
	"strings"
)

// Mapping is the full set of nodes for one transcript, keyed by id.
type Mapping map[string]*Node

// Parse parses a raw transcript payload into a Mapping. Malformed input, a
// missing top-level "mapping" field, or a mapping that is not an object all
// yield an empty Mapping — never an error.
func Parse(raw string) Mapping {
	m := Mapping{}
	if raw == "" {
		return m
	}

	var doc struct {
		Mapping json.RawMessage `json:"mapping"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc.Mapping == nil {
		return m
	}

	// Walk the mapping object token by token so the document's key order
	// survives the parse; it is the tie-break for chronological sorting and
	// the scan order for turn grouping.
	dec := json.NewDecoder(strings.NewReader(string(doc.Mapping)))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return m
	}
	seq := 0
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return m
		}
		id, _ := keyTok.(string)
		var node Node
		if err := dec.Decode(&node); err != nil {
			return m
		}
		node.ID = id
		node.seq = seq
		seq++
		m[id] = &node
	}
	return m
}

// ParentOf resolves a node's parent within the mapping. Dangling parent
// references are treated as "no parent".
func (m Mapping) ParentOf(n *Node) *Node {
	if n == nil || n.Parent == "" {
		return nil
	}
	return m[n.Parent]
}

// Ordered returns every node in document order.
func (m Mapping) Ordered() []*Node {
	nodes := make([]*Node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })
	return nodes
}

// Nodes returns the nodes that carry a numeric creation time, sorted
// ascending by that time. Ties keep document order.
func (m Mapping) Nodes() []*Node {
	return m.sorted(func(*Node) bool { return true })
}

// ToolNodes is Nodes restricted to tool-authored nodes. Only tool nodes are
// authoritative search-result carriers; assistant nodes may cache the same
// data and must not double-count.
func (m Mapping) ToolNodes() []*Node {
	return m.sorted(func(n *Node) bool {
		return n.Message.Author != nil && n.Message.Author.Role == "tool"
	})
}

func (m Mapping) sorted(keep func(*Node) bool) []*Node {
	var nodes []*Node
	for _, n := range m.Ordered() {
		if n.Message == nil || n.Message.CreateTime == nil {
			continue
		}
		if keep(n) {
			nodes = append(nodes, n)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return *nodes[i].Message.CreateTime < *nodes[j].Message.CreateTime
	})
	return nodes
}
