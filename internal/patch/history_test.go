package patch

import (
	"reflect"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

func TestUndoNTimesRestoresOriginal(t *testing.T) {
	base := heroScene()
	h := NewHistory()

	patches := []Patch{
		{Op: OpUpdateStyle, NodeID: "n-heading", Props: map[string]string{"color": "#ff0000"}},
		{Op: OpUpdateText, NodeID: "n-button", Text: strPtr("Sign up")},
		{Op: OpRemoveNode, NodeID: "n-button"},
		{Op: OpAddNode, ParentID: "sec-hero", Subtree: []scene.Node{{
			ID: "n-para", Kind: scene.KindComponent, Type: "paragraph", Text: "Details",
		}}},
		{Op: OpBulkUpdate, Where: &Match{HasText: true}, Change: &Change{Style: map[string]string{"opacity": "0.8"}}},
	}

	s := base.Clone()
	for _, p := range patches {
		next, applied, err := Apply(s, p)
		if err != nil {
			t.Fatalf("apply %s: %v", p.Op, err)
		}
		s = next
		h.Record(*applied)
	}

	for i := range patches {
		next, ok, err := h.Undo(s)
		if err != nil || !ok {
			t.Fatalf("undo %d: ok=%v err=%v", i, ok, err)
		}
		s = next
	}

	if !reflect.DeepEqual(base, s) {
		t.Fatalf("scene differs after undoing all patches:\nwant %+v\ngot  %+v", base, s)
	}
	if h.CanUndo() {
		t.Fatal("undo stack not empty")
	}
}

func TestRedoRestoresExactSubtree(t *testing.T) {
	s := heroScene()
	h := NewHistory()

	next, applied, err := Apply(s, Patch{Op: OpRemoveNode, NodeID: "sec-hero"})
	if err != nil {
		t.Fatal(err)
	}
	s = next
	h.Record(*applied)
	removed := s.Clone()

	s, ok, err := h.Undo(s)
	if err != nil || !ok {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(heroScene(), s) {
		t.Fatal("undo did not restore the removed subtree")
	}

	s, ok, err = h.Redo(s)
	if err != nil || !ok {
		t.Fatalf("redo: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(removed, s) {
		t.Fatal("redo did not reproduce the removal")
	}
}

func TestNewApplyClearsRedo(t *testing.T) {
	s := heroScene()
	h := NewHistory()

	next, applied, err := Apply(s, Patch{Op: OpUpdateText, NodeID: "n-heading", Text: strPtr("One")})
	if err != nil {
		t.Fatal(err)
	}
	s = next
	h.Record(*applied)

	s, _, err = h.Undo(s)
	if err != nil {
		t.Fatal(err)
	}
	if !h.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	_, applied, err = Apply(s, Patch{Op: OpUpdateText, NodeID: "n-heading", Text: strPtr("Two")})
	if err != nil {
		t.Fatal(err)
	}
	h.Record(*applied)

	if h.CanRedo() {
		t.Fatal("redo stack should be cleared by a new apply")
	}
}

func TestBulkUpdateIsOneUndoEntry(t *testing.T) {
	s := heroScene()
	h := NewHistory()

	next, applied, err := Apply(s, Patch{
		Op:     OpBulkUpdate,
		Where:  &Match{Kind: scene.KindComponent},
		Change: &Change{Style: map[string]string{"color": "#333333"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	s = next
	h.Record(*applied)

	if h.Depth() != 1 {
		t.Fatalf("bulk update produced %d undo entries, want 1", h.Depth())
	}

	s, ok, err := h.Undo(s)
	if err != nil || !ok {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(heroScene(), s) {
		t.Fatal("single undo did not revert the whole sweep")
	}
}

func TestUndoOnEmptyHistory(t *testing.T) {
	s := heroScene()
	h := NewHistory()

	next, ok, err := h.Undo(s)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("undo reported success on empty history")
	}
	if next != s {
		t.Fatal("empty undo should return the scene unchanged")
	}
}

func strPtr(s string) *string { return &s }
