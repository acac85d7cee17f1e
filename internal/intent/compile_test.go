package intent

import (
	"reflect"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

func TestCompileSkipsUnknownSection(t *testing.T) {
	s, res := Compile(Spec{
		Sections: []SectionSpec{
			{Type: "hero"},
			{Type: "pricing-matrix"},
			{Type: "footer"},
		},
	})

	if res.Sections != 2 || res.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 sections and 1 skipped", res)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("skipping a section must produce a warning")
	}
	if len(s.Root) != 2 {
		t.Fatalf("scene has %d sections, want 2", len(s.Root))
	}

	types := []string{s.Nodes[s.Root[0]].Type, s.Nodes[s.Root[1]].Type}
	if types[0] != "hero" || types[1] != "footer" {
		t.Fatalf("section types = %v, want [hero footer]", types)
	}
}

func TestCompileContentOverrides(t *testing.T) {
	s, _ := Compile(Spec{
		Sections: []SectionSpec{{
			Type:    "hero",
			Content: map[string]string{"heading": "Custom headline", "cta": "Try it"},
		}},
	})

	var heading, button string
	s.Walk(func(n scene.Node) {
		switch n.Type {
		case "heading":
			heading = n.Text
		case "button":
			button = n.Text
		}
	})
	if heading != "Custom headline" {
		t.Fatalf("heading = %q, want the override", heading)
	}
	if button != "Try it" {
		t.Fatalf("button = %q, want the override", button)
	}
}

func TestCompileAppliesTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Colors["primary"] = "#ff00ff"

	s, _ := Compile(Spec{
		Theme:    &theme,
		Sections: []SectionSpec{{Type: "hero"}},
	})

	found := false
	s.Walk(func(n scene.Node) {
		if n.Type == "button" && n.Style["background-color"] == "#ff00ff" {
			found = true
		}
	})
	if !found {
		t.Fatal("theme primary color not substituted into the cta button")
	}
}

func TestReThemeWithoutRecompile(t *testing.T) {
	s, _ := Compile(Spec{Sections: []SectionSpec{{Type: "hero"}, {Type: "cta"}}})

	dark := DefaultTheme()
	dark.Name = "dark"
	dark.Colors["background"] = "#0b0b0f"
	dark.Colors["heading"] = "#fafafa"

	rethemed := ApplyTheme(s, dark)

	// Structure is untouched: same node ids, same hierarchy.
	if len(rethemed.Nodes) != len(s.Nodes) {
		t.Fatal("re-theming changed the node count")
	}
	for id, n := range s.Nodes {
		rn, ok := rethemed.Nodes[id]
		if !ok {
			t.Fatalf("node %s vanished during re-theme", id)
		}
		if !reflect.DeepEqual(n.Children, rn.Children) || n.Parent != rn.Parent {
			t.Fatalf("node %s hierarchy changed during re-theme", id)
		}
	}

	// Token-backed styles changed to the new theme's values.
	hero := rethemed.Nodes[rethemed.Root[0]]
	if hero.Style["background-color"] != "#0b0b0f" {
		t.Fatalf("hero background = %q, want dark theme value", hero.Style["background-color"])
	}
	// The original scene is untouched.
	if s.Nodes[s.Root[0]].Style["background-color"] == "#0b0b0f" {
		t.Fatal("re-theme mutated the input scene")
	}
}

func TestCompileUnknownVariantFallsBack(t *testing.T) {
	s, res := Compile(Spec{
		Sections: []SectionSpec{{Type: "features", Variant: "mosaic"}},
	})

	if res.Sections != 1 {
		t.Fatalf("result = %+v, want the section compiled", res)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("unknown variant must produce a warning")
	}
	section := s.Nodes[s.Root[0]]
	if section.Layout["display"] != "grid" {
		t.Fatalf("layout = %v, want the default grid variant", section.Layout)
	}
}

func TestCompiledSceneParentsConsistent(t *testing.T) {
	s, _ := Compile(Spec{Sections: []SectionSpec{{Type: "nav", Variant: "with-cta"}}})

	for id, n := range s.Nodes {
		for _, childID := range n.Children {
			child, ok := s.Nodes[childID]
			if !ok {
				t.Fatalf("node %s lists missing child %s", id, childID)
			}
			if child.Parent != id {
				t.Fatalf("child %s parent = %q, want %q", childID, child.Parent, id)
			}
		}
	}
}
