package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brandlane/brandlane/studio-go/internal/logger"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
	"github.com/brandlane/brandlane/studio-go/internal/store"
)

func newTestSaver() (*Saver, *store.Memory) {
	mem := store.NewMemory()
	return NewSaver(mem, logger.Nop(), metrics.NewNop()), mem
}

func TestEnqueueCoalescesToLatest(t *testing.T) {
	sv, _ := newTestSaver()
	s := newSession("doc-1", "scene-1", testScene())

	// No worker running: every enqueue lands in the size-1 queue, each burst
	// replacing the pending request.
	for _, text := range []string{"first", "second", "third"} {
		if _, err := s.Submit(textPatch("n-heading", text)); err != nil {
			t.Fatal(err)
		}
		sv.Enqueue(s)
	}

	if len(sv.queue) != 1 {
		t.Fatalf("queue depth = %d, want 1", len(sv.queue))
	}
	req := <-sv.queue
	if got := req.scene.Nodes["n-heading"].Text; got != "third" {
		t.Fatalf("pending request carries %q, want latest edit", got)
	}
	if req.rev != 3 {
		t.Fatalf("pending rev = %d, want 3", req.rev)
	}
}

func TestFlushPersistsAndClearsDirty(t *testing.T) {
	sv, mem := newTestSaver()
	s := newSession("doc-1", "scene-1", testScene())
	ctx := context.Background()

	if _, err := s.Submit(textPatch("n-heading", "Welcome")); err != nil {
		t.Fatal(err)
	}
	if err := sv.Flush(ctx, s); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Fatal("session dirty after successful flush")
	}

	row, err := mem.Get(ctx, store.ColScenes, "scene-1")
	if err != nil {
		t.Fatal(err)
	}
	var sc scene.Scene
	if err := json.Unmarshal(row.Bytes("payload"), &sc); err != nil {
		t.Fatal(err)
	}
	if got := sc.Nodes["n-heading"].Text; got != "Welcome" {
		t.Fatalf("persisted text = %q", got)
	}
}

func TestFailedFlushKeepsSessionDirty(t *testing.T) {
	sv, mem := newTestSaver()
	s := newSession("doc-1", "scene-1", testScene())

	if _, err := s.Submit(textPatch("n-heading", "Welcome")); err != nil {
		t.Fatal(err)
	}
	mem.FailOn = func(op, collection string) error {
		if op == "insert" && collection == store.ColScenes {
			return errors.New("disk full")
		}
		return nil
	}

	if err := sv.Flush(context.Background(), s); err == nil {
		t.Fatal("flush succeeded despite store failure")
	}
	if !s.Dirty() {
		t.Fatal("failed flush cleared the dirty flag")
	}

	// Store recovers; the retained edits flush cleanly.
	mem.FailOn = nil
	if err := sv.Flush(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	if s.Dirty() {
		t.Fatal("session dirty after recovery flush")
	}
}

func TestRunPersistsEnqueuedSaves(t *testing.T) {
	sv, mem := newTestSaver()
	s := newSession("doc-1", "scene-1", testScene())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sv.Run(ctx)

	if _, err := s.Submit(textPatch("n-heading", "Welcome")); err != nil {
		t.Fatal(err)
	}
	sv.Enqueue(s)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if !s.Dirty() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("save worker never persisted the enqueued scene")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := mem.Get(ctx, store.ColScenes, "scene-1"); err != nil {
		t.Fatalf("scene row missing after save: %v", err)
	}
}

func TestSnapshotPersistsTaggedCopy(t *testing.T) {
	sv, mem := newTestSaver()
	s := newSession("doc-1", "scene-1", testScene())
	ctx := context.Background()

	id, err := sv.Snapshot(ctx, s, "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}

	row, err := mem.Get(ctx, store.ColSnapshots, id)
	if err != nil {
		t.Fatal(err)
	}
	if row.String("author") != "ana@example.com" {
		t.Fatalf("author = %q", row.String("author"))
	}
	if row.String("document_id") != "doc-1" {
		t.Fatalf("document_id = %q", row.String("document_id"))
	}
	var sc scene.Scene
	if err := json.Unmarshal(row.Bytes("payload"), &sc); err != nil {
		t.Fatal(err)
	}
	if len(sc.Nodes) != 2 {
		t.Fatalf("snapshot nodes = %d, want 2", len(sc.Nodes))
	}
}
