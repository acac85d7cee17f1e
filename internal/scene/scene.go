// Package scene holds the in-memory working graph the web-builder flows edit.
// It is distinct from the persisted document model: nodes form a
// section → component → slot hierarchy addressed by stable ids, and all
// mutation goes through the patch package.
package scene

// NodeKind is the structural level of a node.
type NodeKind string

const (
	KindSection   NodeKind = "section"
	KindComponent NodeKind = "component"
	KindSlot      NodeKind = "slot"
)

// Node is one element of the scene graph. Style holds resolved CSS-ish
// property values; StyleRefs remembers which of those came from theme tokens
// so a different theme can be re-substituted without rebuilding the node.
type Node struct {
	ID        string            `json:"id"`
	Kind      NodeKind          `json:"kind"`
	Type      string            `json:"type"` // archetype tag: hero, heading, button, ...
	Parent    string            `json:"parent,omitempty"`
	Children  []string          `json:"children,omitempty"`
	Style     map[string]string `json:"style,omitempty"`
	StyleRefs map[string]string `json:"styleRefs,omitempty"`
	Layout    map[string]string `json:"layout,omitempty"`
	Text      string            `json:"text,omitempty"`
	Slots     map[string]string `json:"slots,omitempty"`
}

// Scene is the full graph: an arena of nodes plus the ordered top-level
// section ids and the token set last applied to it.
type Scene struct {
	Root   []string        `json:"root"`
	Nodes  map[string]Node `json:"nodes"`
	Tokens Tokens          `json:"tokens"`
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{
		Root:  []string{},
		Nodes: map[string]Node{},
	}
}

// Clone returns a copy sharing no mutable state with the receiver.
func (s *Scene) Clone() *Scene {
	out := &Scene{
		Root:   copyIDs(s.Root),
		Nodes:  make(map[string]Node, len(s.Nodes)),
		Tokens: s.Tokens.Clone(),
	}
	for id, n := range s.Nodes {
		out.Nodes[id] = n.Clone()
	}
	return out
}

// Clone deep-copies the node's maps and slices, preserving nil-ness so that
// structural equality survives a copy round-trip.
func (n Node) Clone() Node {
	n.Children = copyIDs(n.Children)
	n.Style = copyProps(n.Style)
	n.StyleRefs = copyProps(n.StyleRefs)
	n.Layout = copyProps(n.Layout)
	n.Slots = copyProps(n.Slots)
	return n
}

// Walk visits every node pre-order in paint order, sections first.
func (s *Scene) Walk(visit func(n Node)) {
	var rec func(id string)
	rec = func(id string) {
		n, ok := s.Nodes[id]
		if !ok {
			return
		}
		visit(n)
		for _, childID := range n.Children {
			rec(childID)
		}
	}
	for _, id := range s.Root {
		rec(id)
	}
}

// Subtree collects the node and all descendants pre-order.
func (s *Scene) Subtree(id string) []Node {
	var out []Node
	var rec func(id string)
	rec = func(id string) {
		n, ok := s.Nodes[id]
		if !ok {
			return
		}
		out = append(out, n.Clone())
		for _, childID := range n.Children {
			rec(childID)
		}
	}
	rec(id)
	return out
}

// SiblingIndex returns the node's position among its siblings, -1 if absent.
func (s *Scene) SiblingIndex(id string) int {
	n, ok := s.Nodes[id]
	if !ok {
		return -1
	}
	siblings := s.Root
	if n.Parent != "" {
		parent, ok := s.Nodes[n.Parent]
		if !ok {
			return -1
		}
		siblings = parent.Children
	}
	for i, sib := range siblings {
		if sib == id {
			return i
		}
	}
	return -1
}

func copyIDs(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyProps(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
