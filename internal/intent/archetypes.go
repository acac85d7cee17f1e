package intent

import (
	"github.com/brandlane/brandlane/studio-go/internal/scene"
	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

// builder accumulates nodes for one section being instantiated.
type builder struct {
	s       *scene.Scene
	content map[string]string
}

func (b *builder) add(n scene.Node) string {
	if n.ID == "" {
		n.ID = typeid.NewNodeID()
	}
	b.s.Nodes[n.ID] = n
	return n.ID
}

func (b *builder) attach(parentID, childID string) {
	parent := b.s.Nodes[parentID]
	parent.Children = append(parent.Children, childID)
	b.s.Nodes[parentID] = parent

	child := b.s.Nodes[childID]
	child.Parent = parentID
	b.s.Nodes[childID] = child
}

// text resolves a slot's copy: spec-provided content wins over the archetype
// default.
func (b *builder) text(slot, fallback string) string {
	if v, ok := b.content[slot]; ok {
		return v
	}
	return fallback
}

// component adds a typed child under parentID carrying a content slot.
func (b *builder) component(parentID, typ, slot, fallback string, style, refs map[string]string) string {
	id := b.add(scene.Node{
		Kind:      scene.KindComponent,
		Type:      typ,
		Text:      b.text(slot, fallback),
		Style:     style,
		StyleRefs: refs,
		Slots:     map[string]string{"content": slot},
	})
	b.attach(parentID, id)
	return id
}

// sectionArchetype instantiates one section subtree and returns its root id.
type sectionArchetype func(b *builder, variant string) string

// archetypes is the fixed section library. Every builder leaves token
// references in StyleRefs so a theme pass can restyle without rebuilding.
var archetypes = map[string]sectionArchetype{
	"hero":         buildHero,
	"features":     buildFeatures,
	"testimonials": buildTestimonials,
	"cta":          buildCTA,
	"nav":          buildNav,
	"footer":       buildFooter,
}

// variants lists the accepted variants per section type; the first entry is
// the default.
var variants = map[string][]string{
	"hero":         {"centered", "split"},
	"features":     {"grid", "list"},
	"testimonials": {"single", "row"},
	"cta":          {"banner", "boxed"},
	"nav":          {"simple", "with-cta"},
	"footer":       {"simple", "columns"},
}

func sectionNode(typ string, layout map[string]string, refs map[string]string) scene.Node {
	return scene.Node{
		Kind:      scene.KindSection,
		Type:      typ,
		Layout:    layout,
		StyleRefs: refs,
	}
}

func buildHero(b *builder, variant string) string {
	layout := map[string]string{
		"display":        "flex",
		"flex-direction": "column",
		"align-items":    "center",
	}
	if variant == "split" {
		layout["flex-direction"] = "row"
		layout["align-items"] = "stretch"
	}
	root := b.add(sectionNode("hero", layout, map[string]string{
		"background-color": "color.background",
		"padding":          "space.xl",
	}))

	b.component(root, "heading", "heading", "Build something people want",
		map[string]string{"font-size": "48px", "font-weight": "700"},
		map[string]string{"color": "color.heading", "font-family": "font.heading"})
	b.component(root, "subheading", "subheading", "Launch faster with a design that does the selling for you.",
		map[string]string{"font-size": "20px"},
		map[string]string{"color": "color.text", "font-family": "font.body"})
	b.component(root, "button", "cta", "Get started",
		map[string]string{"font-weight": "600", "border-radius": "6px"},
		map[string]string{"background-color": "color.primary", "color": "color.background", "padding": "space.sm"})

	if variant == "split" {
		img := b.add(scene.Node{
			Kind:  scene.KindComponent,
			Type:  "image",
			Slots: map[string]string{"src": b.text("image", "")},
		})
		b.attach(root, img)
	}
	return root
}

func buildFeatures(b *builder, variant string) string {
	layout := map[string]string{"display": "grid", "grid-template-columns": "repeat(3, 1fr)"}
	if variant == "list" {
		layout = map[string]string{"display": "flex", "flex-direction": "column"}
	}
	layout["gap"] = "24px"

	root := b.add(sectionNode("features", layout, map[string]string{
		"background-color": "color.surface",
		"padding":          "space.lg",
	}))

	b.component(root, "heading", "heading", "Everything you need",
		map[string]string{"font-size": "32px", "font-weight": "700"},
		map[string]string{"color": "color.heading", "font-family": "font.heading"})

	defaults := []struct{ slot, title, body string }{
		{"feature1", "Fast", "Ship a page in minutes, not weeks."},
		{"feature2", "Flexible", "Every block is editable down to the pixel."},
		{"feature3", "On brand", "Your colors and fonts applied everywhere at once."},
	}
	for _, f := range defaults {
		card := b.add(scene.Node{
			Kind:      scene.KindComponent,
			Type:      "card",
			Style:     map[string]string{"border-radius": "8px"},
			StyleRefs: map[string]string{"background-color": "color.background", "padding": "space.md"},
		})
		b.attach(root, card)
		b.component(card, "subheading", f.slot, f.title,
			map[string]string{"font-weight": "600"},
			map[string]string{"color": "color.heading", "font-family": "font.heading"})
		b.component(card, "paragraph", f.slot+"_body", f.body,
			nil,
			map[string]string{"color": "color.text", "font-family": "font.body"})
	}
	return root
}

func buildTestimonials(b *builder, variant string) string {
	layout := map[string]string{"display": "flex", "flex-direction": "column", "align-items": "center"}
	if variant == "row" {
		layout["flex-direction"] = "row"
	}
	root := b.add(sectionNode("testimonials", layout, map[string]string{
		"background-color": "color.background",
		"padding":          "space.lg",
	}))

	b.component(root, "quote", "quote", "\"This cut our launch time in half.\"",
		map[string]string{"font-size": "24px", "font-style": "italic"},
		map[string]string{"color": "color.heading", "font-family": "font.heading"})
	b.component(root, "paragraph", "attribution", "Jordan Reyes, Head of Growth",
		map[string]string{"font-size": "14px"},
		map[string]string{"color": "color.text", "font-family": "font.body"})
	return root
}

func buildCTA(b *builder, variant string) string {
	refs := map[string]string{
		"background-color": "color.primary",
		"padding":          "space.lg",
	}
	style := map[string]string{}
	if variant == "boxed" {
		style["border-radius"] = "12px"
		style["margin"] = "0 auto"
		style["max-width"] = "960px"
	}
	root := b.add(scene.Node{
		Kind:      scene.KindSection,
		Type:      "cta",
		Layout:    map[string]string{"display": "flex", "flex-direction": "column", "align-items": "center"},
		Style:     style,
		StyleRefs: refs,
	})

	b.component(root, "heading", "heading", "Ready when you are",
		map[string]string{"font-size": "32px", "font-weight": "700"},
		map[string]string{"color": "color.background", "font-family": "font.heading"})
	b.component(root, "button", "cta", "Start free",
		map[string]string{"font-weight": "600", "border-radius": "6px"},
		map[string]string{"background-color": "color.background", "color": "color.primary", "padding": "space.sm"})
	return root
}

func buildNav(b *builder, variant string) string {
	root := b.add(sectionNode("nav", map[string]string{
		"display":         "flex",
		"justify-content": "space-between",
		"align-items":     "center",
	}, map[string]string{
		"background-color": "color.background",
		"padding":          "space.sm",
	}))

	logo := b.add(scene.Node{
		Kind:      scene.KindComponent,
		Type:      "logo",
		Text:      b.text("brand", "Acme"),
		Style:     map[string]string{"font-weight": "700"},
		StyleRefs: map[string]string{"color": "color.heading", "font-family": "font.heading"},
		Slots:     map[string]string{"src": b.text("logo", "")},
	})
	b.attach(root, logo)

	links := b.add(scene.Node{
		Kind:   scene.KindComponent,
		Type:   "list",
		Layout: map[string]string{"display": "flex", "gap": "24px"},
	})
	b.attach(root, links)
	for _, label := range []string{"Product", "Pricing", "About"} {
		item := b.add(scene.Node{
			Kind:      scene.KindSlot,
			Type:      "link",
			Text:      label,
			StyleRefs: map[string]string{"color": "color.text", "font-family": "font.body"},
		})
		b.attach(links, item)
	}

	if variant == "with-cta" {
		b.component(root, "button", "cta", "Sign up",
			map[string]string{"border-radius": "6px"},
			map[string]string{"background-color": "color.primary", "color": "color.background", "padding": "space.sm"})
	}
	return root
}

func buildFooter(b *builder, variant string) string {
	layout := map[string]string{"display": "flex", "justify-content": "space-between"}
	if variant == "columns" {
		layout = map[string]string{"display": "grid", "grid-template-columns": "repeat(4, 1fr)", "gap": "32px"}
	}
	root := b.add(sectionNode("footer", layout, map[string]string{
		"background-color": "color.heading",
		"padding":          "space.lg",
	}))

	b.component(root, "paragraph", "copyright", "© Acme Inc. All rights reserved.",
		map[string]string{"font-size": "13px"},
		map[string]string{"color": "color.surface", "font-family": "font.body"})
	b.component(root, "link", "contact", "hello@acme.test",
		map[string]string{"font-size": "13px"},
		map[string]string{"color": "color.surface", "font-family": "font.body"})
	return root
}
