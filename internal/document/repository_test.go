package document

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brandlane/brandlane/studio-go/internal/logger"
	"github.com/brandlane/brandlane/studio-go/internal/store"
)

func newRepo() (*Repository, *store.Memory) {
	mem := store.NewMemory()
	return NewRepository(mem, logger.Nop()), mem
}

func TestSaveLoadDesignRoundTrip(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	doc := NewSampleDesign("owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Kind != KindDesign {
		t.Fatalf("kind = %s, want design", loaded.Kind)
	}
	if loaded.Timeline != nil {
		t.Fatal("design document must not carry a timeline")
	}
	if len(loaded.Pages) != len(doc.Pages) {
		t.Fatalf("pages = %d, want %d", len(loaded.Pages), len(doc.Pages))
	}

	page, wantPage := loaded.Pages[0], doc.Pages[0]
	if len(page.Layers) != len(wantPage.Layers) {
		t.Fatalf("layers = %d, want %d", len(page.Layers), len(wantPage.Layers))
	}
	for i, id := range wantPage.Order {
		if page.Order[i] != id {
			t.Fatalf("order = %v, want %v", page.Order, wantPage.Order)
		}
	}
	if loaded.BrandKit == nil || len(loaded.BrandKit.Colors) != len(doc.BrandKit.Colors) {
		t.Fatal("brand kit not restored")
	}
}

func TestSaveLoadVideoRoundTrip(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	doc := NewEmptyVideo("Launch teaser", "owner-1")
	doc.Timeline.Tracks = []Track{{
		ID:   "trk-1",
		Type: TrackVideo,
		Clips: []Clip{
			{ID: "clip-a", SourceRef: "file_1", In: 0, Out: 4, Start: 0},
			{ID: "clip-b", SourceRef: "file_2", In: 2, Out: 6, Start: 5,
				Keyframes: []Keyframe{{Time: 0, Property: "opacity", Value: 1, Easing: "linear"}}},
		},
	}}

	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Kind != KindVideo {
		t.Fatalf("kind = %s, want video", loaded.Kind)
	}
	if loaded.Pages != nil {
		t.Fatal("video document must not carry pages")
	}
	if loaded.Timeline == nil || len(loaded.Timeline.Tracks) != 1 {
		t.Fatal("timeline not restored")
	}

	clips := loaded.Timeline.Tracks[0].Clips
	if len(clips) != 2 || clips[0].ID != "clip-a" || clips[1].ID != "clip-b" {
		t.Fatalf("clips = %+v", clips)
	}
	if len(clips[1].Keyframes) != 1 || clips[1].Keyframes[0].Property != "opacity" {
		t.Fatal("clip keyframes not restored")
	}
}

func TestLoadMissingDocument(t *testing.T) {
	repo, _ := newRepo()

	_, err := repo.Load(context.Background(), "doc_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChildFetchFailureFailsWholeLoad(t *testing.T) {
	repo, mem := newRepo()
	ctx := context.Background()

	doc := NewSampleDesign("owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	mem.FailOn = func(op, collection string) error {
		if op == "list" && collection == store.ColLayers {
			return fmt.Errorf("transient failure")
		}
		return nil
	}

	if _, err := repo.Load(ctx, doc.ID); err == nil {
		t.Fatal("load succeeded despite layer fetch failure; partial documents must not escape")
	}
}

func TestSparseSortOrderPreservedOnLoad(t *testing.T) {
	repo, mem := newRepo()
	ctx := context.Background()

	doc := NewEmptyDesign("Untitled", "owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	// Write layers directly with gappy ranks, out of insertion order.
	pageID := doc.Pages[0].ID
	for _, l := range []struct {
		id   string
		rank int
	}{{"l-last", 900}, {"l-first", 3}, {"l-mid", 77}} {
		row := store.Row{
			"id":         l.id,
			"page_id":    pageID,
			"parent_id":  "",
			"type":       "shape",
			"payload":    []byte(fmt.Sprintf(`{"id":%q,"type":"shape","sortOrder":%d}`, l.id, l.rank)),
			"sort_order": l.rank,
		}
		if err := mem.Insert(ctx, store.ColLayers, row); err != nil {
			t.Fatal(err)
		}
	}

	loaded, err := repo.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"l-first", "l-mid", "l-last"}
	got := loaded.Pages[0].Order
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestUpdateScalarsOnly(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	doc := NewEmptyDesign("Untitled", "owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	title := "Renamed"
	if err := repo.Update(ctx, doc.ID, UpdateFields{Title: &title}); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Title != "Renamed" {
		t.Fatalf("title = %q", loaded.Title)
	}
	if !loaded.UpdatedAt.After(doc.UpdatedAt) {
		t.Fatal("updated_at not bumped")
	}
	if len(loaded.Pages) != len(doc.Pages) {
		t.Fatal("update touched nested collections")
	}

	if err := repo.Update(ctx, "doc_missing", UpdateFields{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveTouchesUpdatedAt(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	doc := NewEmptyDesign("Untitled", "owner-1")
	before := doc.UpdatedAt
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if !doc.UpdatedAt.After(before) {
		t.Fatal("save did not bump the modification timestamp")
	}

	loaded, err := repo.Load(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.UpdatedAt.Equal(doc.UpdatedAt) {
		t.Fatalf("persisted updated_at = %v, want %v", loaded.UpdatedAt, doc.UpdatedAt)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo, _ := newRepo()
	ctx := context.Background()

	doc := NewSampleDesign("owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	snapID, err := repo.Snapshot(ctx, doc, "owner-1")
	if err != nil {
		t.Fatal(err)
	}

	payload, err := repo.GetSnapshot(ctx, snapID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) == 0 {
		t.Fatal("snapshot payload empty")
	}
}

func TestDeleteCascades(t *testing.T) {
	repo, mem := newRepo()
	ctx := context.Background()

	doc := NewSampleDesign("owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Snapshot(ctx, doc, "owner-1"); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, doc.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Load(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("document still loadable after delete: %v", err)
	}
	for _, col := range []string{store.ColPages, store.ColLayers, store.ColBrandKits, store.ColSnapshots} {
		rows, err := mem.List(ctx, col, store.Filter{"document_id": doc.ID}, "")
		if col == store.ColLayers {
			// Layers key off page, not document.
			rows, err = mem.List(ctx, col, store.Filter{"page_id": doc.Pages[0].ID}, "")
		}
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 0 {
			t.Fatalf("%s rows remain after delete", col)
		}
	}
}

func TestIdempotentSave(t *testing.T) {
	repo, mem := newRepo()
	ctx := context.Background()

	doc := NewSampleDesign("owner-1")
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}
	// A retried write after a transient failure must not double-apply.
	if err := repo.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	rows, err := mem.List(ctx, store.ColPages, store.Filter{"document_id": doc.ID}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(doc.Pages) {
		t.Fatalf("pages = %d after double save, want %d", len(rows), len(doc.Pages))
	}
}
