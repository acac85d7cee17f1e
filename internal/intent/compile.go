// Package intent bootstraps a scene graph from a declarative mockup spec:
// an ordered list of section entries plus a theme. It is a best-effort
// generator, so malformed entries degrade to warnings instead of failing
// the whole compile.
package intent

import (
	"fmt"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// Spec is the compiler input. Section order is page order.
type Spec struct {
	Title    string        `json:"title,omitempty"`
	Theme    *scene.Tokens `json:"theme,omitempty"`
	Sections []SectionSpec `json:"sections"`
}

// SectionSpec names one section to instantiate. Content keys override the
// archetype's default slot copy.
type SectionSpec struct {
	Type    string            `json:"type"`
	Variant string            `json:"variant,omitempty"`
	Content map[string]string `json:"content,omitempty"`
}

// Result reports what the compile produced and what it skipped.
type Result struct {
	Sections int      `json:"sections"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Compile instantiates each known section from the archetype library, binds
// spec content over the defaults, then applies the theme tokens in a single
// pass. Unknown section types are skipped with a warning. The returned scene
// contains exactly the sections that resolved, in spec order.
func Compile(spec Spec) (*scene.Scene, *Result) {
	s := scene.New()
	res := &Result{}

	for i, entry := range spec.Sections {
		build, ok := archetypes[entry.Type]
		if !ok {
			res.Skipped++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("section %d: unknown type %q, skipped", i, entry.Type))
			continue
		}

		variant := resolveVariant(entry.Type, entry.Variant, i, res)

		b := &builder{s: s, content: entry.Content}
		rootID := build(b, variant)
		s.Root = append(s.Root, rootID)
		res.Sections++
	}

	if spec.Theme != nil {
		s = ApplyTheme(s, *spec.Theme)
	} else {
		s = ApplyTheme(s, DefaultTheme())
	}
	return s, res
}

// ApplyTheme substitutes a token set into the compiled scene. Structure is
// untouched, so callers can re-theme an existing scene without recompiling.
func ApplyTheme(s *scene.Scene, tokens scene.Tokens) *scene.Scene {
	return scene.ApplyTokens(s, tokens)
}

// DefaultTheme is the token set used when a spec names none.
func DefaultTheme() scene.Tokens {
	return scene.Tokens{
		Name: "default",
		Colors: map[string]string{
			"primary":    "#2563eb",
			"heading":    "#0f172a",
			"text":       "#475569",
			"background": "#ffffff",
			"surface":    "#f1f5f9",
		},
		Fonts: map[string]string{
			"heading": "Inter, sans-serif",
			"body":    "Inter, sans-serif",
		},
		Spacing: map[string]string{
			"sm": "12px",
			"md": "24px",
			"lg": "48px",
			"xl": "96px",
		},
	}
}

func resolveVariant(sectionType, requested string, index int, res *Result) string {
	accepted := variants[sectionType]
	if requested == "" {
		return accepted[0]
	}
	for _, v := range accepted {
		if v == requested {
			return v
		}
	}
	res.Warnings = append(res.Warnings,
		fmt.Sprintf("section %d: unknown %s variant %q, using %q", index, sectionType, requested, accepted[0]))
	return accepted[0]
}
