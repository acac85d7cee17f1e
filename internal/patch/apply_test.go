package patch

import (
	"errors"
	"reflect"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

// heroScene builds a small fixed graph: one hero section holding a heading
// and a button.
func heroScene() *scene.Scene {
	s := scene.New()
	s.Root = []string{"sec-hero"}
	s.Nodes["sec-hero"] = scene.Node{
		ID:       "sec-hero",
		Kind:     scene.KindSection,
		Type:     "hero",
		Children: []string{"n-heading", "n-button"},
		Layout:   map[string]string{"display": "flex"},
	}
	s.Nodes["n-heading"] = scene.Node{
		ID:     "n-heading",
		Kind:   scene.KindComponent,
		Type:   "heading",
		Parent: "sec-hero",
		Text:   "Welcome",
		Style:  map[string]string{"color": "#111111", "font-size": "48px"},
	}
	s.Nodes["n-button"] = scene.Node{
		ID:     "n-button",
		Kind:   scene.KindComponent,
		Type:   "button",
		Parent: "sec-hero",
		Text:   "Go",
		Style:  map[string]string{"color": "#ffffff"},
		Slots:  map[string]string{"href": "/signup"},
	}
	return s
}

func mustApply(t *testing.T, s *scene.Scene, p Patch) (*scene.Scene, *Applied) {
	t.Helper()
	next, applied, err := Apply(s, p)
	if err != nil {
		t.Fatalf("apply %s: %v", p.Op, err)
	}
	return next, applied
}

// roundTrip applies the patch and then its inverse and asserts the scene is
// structurally unchanged.
func roundTrip(t *testing.T, p Patch) {
	t.Helper()
	base := heroScene()

	next, applied := mustApply(t, base, p)
	back, _ := mustApply(t, next, applied.Inverse)

	if !reflect.DeepEqual(base, back) {
		t.Fatalf("%s round-trip mismatch:\nbase %+v\nback %+v", p.Op, base, back)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	base := heroScene()
	snapshot := base.Clone()

	mustApply(t, base, Patch{
		Op:     OpUpdateStyle,
		NodeID: "n-heading",
		Props:  map[string]string{"color": "#ff0000"},
	})

	if !reflect.DeepEqual(base, snapshot) {
		t.Fatal("input scene was mutated")
	}
}

func TestAddNodeRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op:       OpAddNode,
		ParentID: "sec-hero",
		Subtree: []scene.Node{{
			ID:   "n-sub",
			Kind: scene.KindComponent,
			Type: "subheading",
			Text: "Below the fold",
		}},
	})
}

func TestAddNodeSubtreeRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op: OpAddNode,
		Subtree: []scene.Node{
			{ID: "sec-cta", Kind: scene.KindSection, Type: "cta", Children: []string{"n-cta-btn"}},
			{ID: "n-cta-btn", Kind: scene.KindComponent, Type: "button", Parent: "sec-cta", Text: "Buy"},
		},
	})
}

func TestRemoveNodeRoundTrip(t *testing.T) {
	roundTrip(t, Patch{Op: OpRemoveNode, NodeID: "n-heading"})
}

func TestRemoveSectionRoundTrip(t *testing.T) {
	roundTrip(t, Patch{Op: OpRemoveNode, NodeID: "sec-hero"})
}

func TestUpdateNodeRoundTrip(t *testing.T) {
	typ := "subheading"
	roundTrip(t, Patch{Op: OpUpdateNode, NodeID: "n-heading", Node: &NodeProps{Type: &typ}})
}

func TestMoveNodeRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op:          OpMoveNode,
		NodeID:      "n-button",
		NewParentID: "sec-hero",
		NewIndex:    0,
	})
}

func TestBindSlotRoundTrip(t *testing.T) {
	roundTrip(t, Patch{Op: OpBindSlot, NodeID: "n-button", Slot: "href", Ref: "/pricing"})
	roundTrip(t, Patch{Op: OpBindSlot, NodeID: "n-button", Slot: "href", Ref: ""})
	roundTrip(t, Patch{Op: OpBindSlot, NodeID: "n-heading", Slot: "icon", Ref: "star"})
}

func TestUpdateStyleRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op:     OpUpdateStyle,
		NodeID: "n-heading",
		Props:  map[string]string{"color": "#ff0000", "font-size": ""},
	})
}

func TestUpdateLayoutRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op:     OpUpdateLayout,
		NodeID: "sec-hero",
		Props:  map[string]string{"gap": "16px"},
	})
}

func TestUpdateTextRoundTrip(t *testing.T) {
	text := "Hello there"
	roundTrip(t, Patch{Op: OpUpdateText, NodeID: "n-heading", Text: &text})
}

func TestBulkUpdateRoundTrip(t *testing.T) {
	roundTrip(t, Patch{
		Op:     OpBulkUpdate,
		Where:  &Match{HasText: true},
		Change: &Change{Style: map[string]string{"color": "#00ff00"}},
	})
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	_, _, err := Apply(heroScene(), Patch{
		Op:          OpMoveNode,
		NodeID:      "sec-hero",
		NewParentID: "n-heading",
	})

	var invalidErr *InvalidPatchError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidPatchError, got %v", err)
	}
}

func TestStaleTargetRejected(t *testing.T) {
	base := heroScene()
	next, _ := mustApply(t, base, Patch{Op: OpRemoveNode, NodeID: "n-heading"})

	_, _, err := Apply(next, Patch{
		Op:     OpUpdateStyle,
		NodeID: "n-heading",
		Props:  map[string]string{"color": "#ff0000"},
	})

	var invalidErr *InvalidPatchError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidPatchError, got %v", err)
	}
	if invalidErr.NodeID != "n-heading" {
		t.Fatalf("error names node %q, want n-heading", invalidErr.NodeID)
	}

	// Rejection left the scene untouched.
	if _, ok := next.Nodes["n-heading"]; ok {
		t.Fatal("removed node reappeared")
	}
}

func TestDuplicateAddRejected(t *testing.T) {
	_, _, err := Apply(heroScene(), Patch{
		Op:       OpAddNode,
		ParentID: "sec-hero",
		Subtree:  []scene.Node{{ID: "n-heading", Kind: scene.KindComponent, Type: "heading"}},
	})

	var invalidErr *InvalidPatchError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidPatchError, got %v", err)
	}
}

func TestAppliedChangedIDs(t *testing.T) {
	_, applied := mustApply(t, heroScene(), Patch{
		Op:     OpBulkUpdate,
		Where:  &Match{Kind: scene.KindComponent},
		Change: &Change{Style: map[string]string{"opacity": "0.5"}},
	})

	if len(applied.Changed) != 2 {
		t.Fatalf("changed %v, want the two components", applied.Changed)
	}
}
