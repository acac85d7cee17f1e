// Package export renders a scene graph to HTML markup. Both renderers are
// pure functions of the scene: no clocks, no counters, no ambient state, so
// exporting the same scene twice yields byte-identical output.
package export

import (
	"fmt"
	"hash/fnv"
	"html"
	"sort"
	"strings"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// File is one rendered artifact.
type File struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Options configure a render. Zero value is usable.
type Options struct {
	Title string // document title for standalone output
	Lang  string // html lang attribute, defaults to "en"
}

func (o Options) lang() string {
	if o.Lang == "" {
		return "en"
	}
	return o.Lang
}

func (o Options) title() string {
	if o.Title == "" {
		return "Untitled"
	}
	return o.Title
}

// ComponentMarkup renders one HTML fragment per top-level section plus a
// shared styles.css. Styling goes through utility classes whose names are
// derived from the declaration set itself, so equal styles share a class and
// an unchanged scene re-exports byte for byte.
func ComponentMarkup(s *scene.Scene, opts Options) ([]File, error) {
	classes := newClassTable()

	var files []File
	for i, rootID := range s.Root {
		section, ok := s.Nodes[rootID]
		if !ok {
			return nil, fmt.Errorf("section %s missing from scene", rootID)
		}

		var b strings.Builder
		renderNode(&b, s, section, 0, classes.classFor)
		name := fmt.Sprintf("%02d-%s.html", i+1, fileSlug(section.Type))
		files = append(files, File{Name: name, Content: []byte(b.String())})
	}

	files = append(files, File{Name: "styles.css", Content: []byte(classes.stylesheet())})
	return files, nil
}

// StandaloneMarkup renders the whole scene as a single self-contained HTML
// document with every declaration inlined on its element.
func StandaloneMarkup(s *scene.Scene, opts Options) (File, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=%q>\n<head>\n", opts.lang())
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(opts.title()))
	b.WriteString("</head>\n<body>\n")

	for _, rootID := range s.Root {
		section, ok := s.Nodes[rootID]
		if !ok {
			return File{}, fmt.Errorf("section %s missing from scene", rootID)
		}
		renderNode(&b, s, section, 0, nil)
	}

	b.WriteString("</body>\n</html>\n")
	return File{Name: "index.html", Content: []byte(b.String())}, nil
}

// classFor maps a node's declarations to a class attribute; nil means inline
// the declarations instead.
type classFunc func(decls map[string]string) string

func renderNode(b *strings.Builder, s *scene.Scene, n scene.Node, depth int, classFor classFunc) {
	indent := strings.Repeat("  ", depth)
	tag := tagFor(n)
	decls := mergedDecls(n)

	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(tag)
	fmt.Fprintf(b, " data-node=%q", html.EscapeString(n.ID))
	if n.Type != "" {
		fmt.Fprintf(b, " data-type=%q", html.EscapeString(n.Type))
	}
	if len(decls) > 0 {
		if classFor != nil {
			fmt.Fprintf(b, " class=%q", classFor(decls))
		} else {
			fmt.Fprintf(b, " style=%q", html.EscapeString(inlineDecls(decls)))
		}
	}
	if tag == "img" {
		fmt.Fprintf(b, " src=%q alt=%q>\n", html.EscapeString(n.Slots["src"]), html.EscapeString(n.Text))
		return
	}
	if tag == "a" {
		href := n.Slots["href"]
		if href == "" {
			href = "#"
		}
		fmt.Fprintf(b, " href=%q", html.EscapeString(href))
	}
	b.WriteString(">")

	if len(n.Children) == 0 {
		b.WriteString(html.EscapeString(n.Text))
		fmt.Fprintf(b, "</%s>\n", tag)
		return
	}

	b.WriteString("\n")
	if n.Text != "" {
		b.WriteString(strings.Repeat("  ", depth+1))
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("\n")
	}
	for _, childID := range n.Children {
		child, ok := s.Nodes[childID]
		if !ok {
			continue
		}
		renderNode(b, s, child, depth+1, classFor)
	}
	b.WriteString(indent)
	fmt.Fprintf(b, "</%s>\n", tag)
}

func tagFor(n scene.Node) string {
	if n.Kind == scene.KindSection {
		if n.Type == "nav" {
			return "nav"
		}
		if n.Type == "footer" {
			return "footer"
		}
		return "section"
	}
	switch n.Type {
	case "heading":
		return "h1"
	case "subheading":
		return "h2"
	case "paragraph", "quote":
		return "p"
	case "button":
		return "a"
	case "link":
		return "a"
	case "image", "logo":
		return "img"
	case "list":
		return "ul"
	case "item":
		return "li"
	default:
		return "div"
	}
}

// mergedDecls folds layout into style; style wins on key collision.
func mergedDecls(n scene.Node) map[string]string {
	if len(n.Layout) == 0 {
		return n.Style
	}
	out := make(map[string]string, len(n.Layout)+len(n.Style))
	for k, v := range n.Layout {
		out[k] = v
	}
	for k, v := range n.Style {
		out[k] = v
	}
	return out
}

// inlineDecls serializes declarations in sorted key order so output is
// independent of map iteration.
func inlineDecls(decls map[string]string) string {
	keys := make([]string, 0, len(decls))
	for k := range decls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+decls[k])
	}
	return strings.Join(parts, "; ")
}

// classTable names declaration sets. A class name is a hash of the canonical
// declaration string, so the same declarations always get the same class no
// matter where or how often they appear.
type classTable struct {
	order []string          // class names in first-use order
	rules map[string]string // class name -> canonical declarations
}

func newClassTable() *classTable {
	return &classTable{rules: map[string]string{}}
}

func (t *classTable) classFor(decls map[string]string) string {
	canon := inlineDecls(decls)
	h := fnv.New32a()
	h.Write([]byte(canon))
	name := fmt.Sprintf("u-%08x", h.Sum32())

	if _, seen := t.rules[name]; !seen {
		t.order = append(t.order, name)
		t.rules[name] = canon
	}
	return name
}

func (t *classTable) stylesheet() string {
	var b strings.Builder
	for _, name := range t.order {
		fmt.Fprintf(&b, ".%s { %s; }\n", name, t.rules[name])
	}
	return b.String()
}

func fileSlug(sectionType string) string {
	if sectionType == "" {
		return "section"
	}
	slug := strings.ToLower(sectionType)
	slug = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return '-'
	}, slug)
	return slug
}
