package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/brandlane/brandlane/studio-go/internal/logger"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/store"
)

// gatedStore holds every Insert until released, then fails it if the
// caller's context has already been cancelled. Stands in for a backend
// that honors context cancellation mid-write.
type gatedStore struct {
	store.Store
	release chan struct{}
}

func (g *gatedStore) Insert(ctx context.Context, collection string, row store.Row) error {
	<-g.release
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return g.Store.Insert(ctx, collection, row)
}

func TestSnapshotOutlivesRequestContext(t *testing.T) {
	mem := store.NewMemory()
	gated := &gatedStore{Store: mem, release: make(chan struct{})}
	log := logger.Nop()
	m := metrics.NewNop()
	saver := NewSaver(gated, log, m)
	mgr := NewManager(gated, saver, NewPreview(log), log, m)
	h := NewHandler(mgr, log, m, nil)

	if _, err := mgr.Open(context.Background(), "doc-1"); err != nil {
		t.Fatal(err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/documents/{documentId}/snapshot", h.Snapshot).Methods("POST")

	reqCtx, cancelReq := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/snapshot",
		strings.NewReader(`{"author":"ana@example.com"}`)).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// The server tears the request context down once the response is
	// written; the queued write must still complete.
	cancelReq()
	close(gated.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, err := mem.List(context.Background(), store.ColSnapshots, store.Filter{"document_id": "doc-1"}, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) == 1 {
			if rows[0].String("author") != "ana@example.com" {
				t.Fatalf("author = %q", rows[0].String("author"))
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot never persisted after the request context ended")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
