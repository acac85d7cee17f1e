package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brandlane/brandlane/studio-go/internal/logger"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/store"
)

func newTestManager() (*Manager, *store.Memory) {
	mem := store.NewMemory()
	log := logger.Nop()
	m := metrics.NewNop()
	saver := NewSaver(mem, log, m)
	return NewManager(mem, saver, NewPreview(log), log, m), mem
}

func TestOpenStartsEmptySceneWhenNonePersisted(t *testing.T) {
	mgr, _ := newTestManager()
	ctx := context.Background()

	s, err := mgr.Open(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.SceneRowID == "" {
		t.Fatal("no scene row id assigned")
	}
	if len(s.Scene().Nodes) != 0 {
		t.Fatal("fresh session scene not empty")
	}

	again, err := mgr.Open(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if again != s {
		t.Fatal("second open created a new session")
	}

	got, err := mgr.Get("doc-1")
	if err != nil || got != s {
		t.Fatalf("get: %v", err)
	}
}

func TestOpenLoadsPersistedScene(t *testing.T) {
	mgr, mem := newTestManager()
	ctx := context.Background()

	payload, err := json.Marshal(testScene())
	if err != nil {
		t.Fatal(err)
	}
	row := store.Row{
		"id":          "scene-7",
		"document_id": "doc-1",
		"payload":     payload,
		"updated_at":  time.Now().UTC(),
	}
	if err := mem.Insert(ctx, store.ColScenes, row); err != nil {
		t.Fatal(err)
	}

	s, err := mgr.Open(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.SceneRowID != "scene-7" {
		t.Fatalf("scene row id = %q, want the persisted row", s.SceneRowID)
	}
	if got := s.Scene().Nodes["n-heading"].Text; got != "Hello" {
		t.Fatalf("loaded text = %q", got)
	}
}

func TestCloseFlushesAndRemoves(t *testing.T) {
	mgr, mem := newTestManager()
	ctx := context.Background()

	s, err := mgr.Open(ctx, "doc-1")
	if err != nil {
		t.Fatal(err)
	}
	s.Replace(testScene())

	if err := mgr.Close(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Get("doc-1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if _, err := mem.Get(ctx, store.ColScenes, s.SceneRowID); err != nil {
		t.Fatalf("scene not flushed on close: %v", err)
	}

	// Closing twice is a no-op.
	if err := mgr.Close(ctx, "doc-1"); err != nil {
		t.Fatal(err)
	}
}

func TestSlowLoadSupersededByNewerOpen(t *testing.T) {
	mgr, mem := newTestManager()
	ctx := context.Background()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	mem.FailOn = func(op, collection string) error {
		if op == "list" && collection == store.ColScenes {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(started)
				<-release
			}
		}
		return nil
	}

	slow := make(chan error, 1)
	go func() {
		_, err := mgr.Open(ctx, "doc-slow")
		slow <- err
	}()

	<-started
	if _, err := mgr.Open(ctx, "doc-fast"); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-slow; !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("err = %v, want ErrStaleLoad", err)
	}
	if _, err := mgr.Get("doc-slow"); !errors.Is(err, ErrNoSession) {
		t.Fatal("superseded load still installed a session")
	}
	if _, err := mgr.Get("doc-fast"); err != nil {
		t.Fatal("newer load lost its session")
	}
}
