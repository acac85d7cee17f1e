package session

import (
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/patch"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

func testScene() *scene.Scene {
	s := scene.New()
	s.Root = []string{"sec-hero"}
	s.Nodes["sec-hero"] = scene.Node{
		ID:       "sec-hero",
		Kind:     scene.KindSection,
		Type:     "hero",
		Children: []string{"n-heading"},
	}
	s.Nodes["n-heading"] = scene.Node{
		ID:     "n-heading",
		Kind:   scene.KindComponent,
		Type:   "heading",
		Parent: "sec-hero",
		Text:   "Hello",
	}
	return s
}

func textPatch(id, text string) patch.Patch {
	return patch.Patch{Op: patch.OpUpdateText, NodeID: id, Text: &text}
}

func TestSubmitUndoRedo(t *testing.T) {
	s := newSession("doc-1", "scene-1", testScene())

	if s.Dirty() {
		t.Fatal("fresh session reported dirty")
	}

	if _, err := s.Submit(textPatch("n-heading", "Welcome")); err != nil {
		t.Fatal(err)
	}
	if got := s.Scene().Nodes["n-heading"].Text; got != "Welcome" {
		t.Fatalf("text = %q", got)
	}
	if !s.Dirty() || !s.CanUndo() || s.CanRedo() {
		t.Fatal("state flags wrong after submit")
	}

	ok, err := s.Undo()
	if err != nil || !ok {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if got := s.Scene().Nodes["n-heading"].Text; got != "Hello" {
		t.Fatalf("text after undo = %q", got)
	}
	if !s.CanRedo() {
		t.Fatal("redo unavailable after undo")
	}

	ok, err = s.Redo()
	if err != nil || !ok {
		t.Fatalf("redo: ok=%v err=%v", ok, err)
	}
	if got := s.Scene().Nodes["n-heading"].Text; got != "Welcome" {
		t.Fatalf("text after redo = %q", got)
	}
}

func TestRejectedPatchLeavesStateUntouched(t *testing.T) {
	s := newSession("doc-1", "scene-1", testScene())

	if _, err := s.Submit(textPatch("n-gone", "x")); err == nil {
		t.Fatal("patch against missing node accepted")
	}
	if s.Dirty() || s.CanUndo() {
		t.Fatal("rejected patch mutated session state")
	}
}

func TestReplaceClearsHistory(t *testing.T) {
	s := newSession("doc-1", "scene-1", testScene())
	if _, err := s.Submit(textPatch("n-heading", "Welcome")); err != nil {
		t.Fatal(err)
	}

	s.Replace(scene.New())

	if s.CanUndo() || s.CanRedo() {
		t.Fatal("history survived replace")
	}
	if len(s.Scene().Nodes) != 0 {
		t.Fatal("replacement scene not installed")
	}
	if !s.Dirty() {
		t.Fatal("replace must leave the session dirty")
	}
}

func TestSceneReturnsIsolatedClone(t *testing.T) {
	s := newSession("doc-1", "scene-1", testScene())

	snap := s.Scene()
	n := snap.Nodes["n-heading"]
	n.Text = "tampered"
	snap.Nodes["n-heading"] = n

	if got := s.Scene().Nodes["n-heading"].Text; got != "Hello" {
		t.Fatalf("session scene mutated through snapshot: %q", got)
	}
}
