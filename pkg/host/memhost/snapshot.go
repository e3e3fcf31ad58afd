package memhost

import (
	"github.com/goccy/go-json"
)

// Snapshot is a serialisable copy of a node subtree.
type Snapshot struct {
	ID       uint64         `json:"id"`
	Kind     string         `json:"kind"`
	Tag      string         `json:"tag,omitempty"`
	Text     string         `json:"text,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Handlers []string       `json:"handlers,omitempty"`
	Children []Snapshot     `json:"children,omitempty"`
}

// Snapshot copies the subtree rooted at n.
func (h *Host) Snapshot(n *Node) Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return snapshot(n)
}

func snapshot(n *Node) Snapshot {
	s := Snapshot{
		ID:   n.ID,
		Kind: n.Kind.String(),
		Tag:  n.Tag,
		Text: n.Text,
	}
	if len(n.Attrs) > 0 {
		s.Attrs = make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			s.Attrs[k] = v
		}
	}
	if len(n.handlers) > 0 {
		s.Handlers = sortedKeys(n.handlers)
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, snapshot(c))
	}
	return s
}

// JSON encodes the snapshot of n.
func (h *Host) JSON(n *Node) ([]byte, error) {
	return json.Marshal(h.Snapshot(n))
}

// JSONIndent encodes the snapshot of n with indentation.
func (h *Host) JSONIndent(n *Node) ([]byte, error) {
	return json.MarshalIndent(h.Snapshot(n), "", "  ")
}
