package scene

import "strings"

// Tokens is a named theme: the color/font/spacing values substituted into
// token-referencing style properties across a scene.
type Tokens struct {
	Name    string            `json:"name"`
	Colors  map[string]string `json:"colors,omitempty"`
	Fonts   map[string]string `json:"fonts,omitempty"`
	Spacing map[string]string `json:"spacing,omitempty"`
}

// Clone returns an independent copy.
func (t Tokens) Clone() Tokens {
	t.Colors = copyProps(t.Colors)
	t.Fonts = copyProps(t.Fonts)
	t.Spacing = copyProps(t.Spacing)
	return t
}

// Lookup resolves a token reference of the form "color.primary",
// "font.heading" or "space.md".
func (t Tokens) Lookup(ref string) (string, bool) {
	group, name, ok := strings.Cut(ref, ".")
	if !ok {
		return "", false
	}
	var table map[string]string
	switch group {
	case "color":
		table = t.Colors
	case "font":
		table = t.Fonts
	case "space":
		table = t.Spacing
	default:
		return "", false
	}
	v, ok := table[name]
	return v, ok
}

// ApplyTokens re-substitutes the token set into every node that carries style
// refs and records the tokens on the scene. It is a pure pass over the graph:
// structure and non-token styles are untouched, so re-theming never re-runs
// section instantiation.
func ApplyTokens(s *Scene, tokens Tokens) *Scene {
	out := s.Clone()
	out.Tokens = tokens.Clone()
	for id, n := range out.Nodes {
		if len(n.StyleRefs) == 0 {
			continue
		}
		for prop, ref := range n.StyleRefs {
			if v, ok := tokens.Lookup(ref); ok {
				if n.Style == nil {
					n.Style = map[string]string{}
				}
				n.Style[prop] = v
			}
		}
		out.Nodes[id] = n
	}
	return out
}
