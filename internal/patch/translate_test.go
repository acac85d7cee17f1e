package patch

import (
	"errors"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

func TestTranslateHeadingColor(t *testing.T) {
	s := heroScene()

	patches, err := Translate(s, "set heading color to #ff0000")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want exactly 1", len(patches))
	}

	p := patches[0]
	if p.Op != OpUpdateStyle {
		t.Fatalf("op = %s, want update_style", p.Op)
	}
	if p.NodeID != "n-heading" {
		t.Fatalf("target = %s, want n-heading", p.NodeID)
	}
	if p.Props["color"] != "#ff0000" {
		t.Fatalf("props = %v, want color #ff0000", p.Props)
	}
}

func TestTranslateScopedToSection(t *testing.T) {
	s := heroScene()
	// A second section with its own button should not be touched.
	s.Root = append(s.Root, "sec-cta")
	s.Nodes["sec-cta"] = scene.Node{
		ID: "sec-cta", Kind: scene.KindSection, Type: "cta", Children: []string{"n-cta-btn"},
	}
	s.Nodes["n-cta-btn"] = scene.Node{
		ID: "n-cta-btn", Kind: scene.KindComponent, Type: "button", Parent: "sec-cta", Text: "Buy",
	}

	patches, err := Translate(s, "change the hero button background color to #00ff00")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 || patches[0].NodeID != "n-button" {
		t.Fatalf("patches = %+v, want one patch on n-button", patches)
	}
	if patches[0].Props["background"] != "#00ff00" {
		t.Fatalf("props = %v", patches[0].Props)
	}
}

func TestTranslateFontSize(t *testing.T) {
	patches, err := Translate(heroScene(), "make the heading font size 64")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(patches))
	}
	if patches[0].Props["font-size"] != "64px" {
		t.Fatalf("props = %v, want font-size 64px", patches[0].Props)
	}
}

func TestTranslateQuotedTextEdit(t *testing.T) {
	patches, err := Translate(heroScene(), `change the heading text to "Ship faster"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want 1", len(patches))
	}
	p := patches[0]
	if p.Op != OpUpdateText || p.NodeID != "n-heading" {
		t.Fatalf("patch = %+v, want update_text on n-heading", p)
	}
	if p.Text == nil || *p.Text != "Ship faster" {
		t.Fatalf("text = %v, want Ship faster", p.Text)
	}
}

func TestTranslateBulkTextNodes(t *testing.T) {
	patches, err := Translate(heroScene(), "set all text nodes opacity to 0.5")
	if err != nil {
		t.Fatal(err)
	}
	if len(patches) != 1 {
		t.Fatalf("got %d patches, want one bulk patch", len(patches))
	}
	p := patches[0]
	if p.Op != OpBulkUpdate {
		t.Fatalf("op = %s, want bulk_update", p.Op)
	}
	if p.Where == nil || !p.Where.HasText {
		t.Fatalf("where = %+v, want HasText", p.Where)
	}
	if p.Change == nil || p.Change.Style["opacity"] != "0.5" {
		t.Fatalf("change = %+v", p.Change)
	}
}

func TestTranslateNoMatch(t *testing.T) {
	patches, err := Translate(heroScene(), "set the footer link color to #123456")
	if !errors.Is(err, ErrNoMatchingTarget) {
		t.Fatalf("err = %v, want ErrNoMatchingTarget", err)
	}
	if len(patches) != 0 {
		t.Fatalf("patches = %+v, want none", patches)
	}
}

func TestTranslateNonsense(t *testing.T) {
	if _, err := Translate(heroScene(), "do something nice"); !errors.Is(err, ErrNoMatchingTarget) {
		t.Fatalf("err = %v, want ErrNoMatchingTarget", err)
	}
}
