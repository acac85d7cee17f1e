package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/store"
	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

var ErrNotFound = errors.New("document not found")

// Repository reconstructs the in-memory document graph from persisted rows
// and flattens it back. Nested collections are written through Save; Update
// is for top-level scalars only.
type Repository struct {
	store store.Store
	log   zerolog.Logger
}

func NewRepository(st store.Store, log zerolog.Logger) *Repository {
	return &Repository{store: st, log: log}
}

// Summary is the list-view projection of a document row.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Kind      Kind      `json:"kind"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Load performs the ordered composite fetch: document row, brand kit, then
// pages and layers, or timeline, tracks and clips, each ordered by
// sort_order. Any child fetch failure fails the whole load; callers never see
// a partially populated document.
func (r *Repository) Load(ctx context.Context, documentID string) (*Document, error) {
	row, err := r.store.Get(ctx, store.ColDocuments, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc := &Document{
		ID:        row.String("id"),
		Title:     row.String("title"),
		Kind:      Kind(row.String("type")),
		OwnerID:   row.String("owner_id"),
		CreatedAt: row.Time("created_at"),
		UpdatedAt: row.Time("updated_at"),
	}

	kit, err := r.loadBrandKit(ctx, documentID)
	if err != nil {
		return nil, err
	}
	doc.BrandKit = kit

	switch doc.Kind {
	case KindVideo:
		tl, err := r.loadTimeline(ctx, documentID)
		if err != nil {
			return nil, err
		}
		doc.Timeline = tl
	default:
		pages, err := r.loadPages(ctx, documentID)
		if err != nil {
			return nil, err
		}
		doc.Pages = pages
	}

	return doc, nil
}

func (r *Repository) loadBrandKit(ctx context.Context, documentID string) (*BrandKit, error) {
	rows, err := r.store.List(ctx, store.ColBrandKits, store.Filter{"document_id": documentID}, "")
	if err != nil {
		return nil, fmt.Errorf("list brand kits: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var kit BrandKit
	if err := json.Unmarshal(rows[0].Bytes("payload"), &kit); err != nil {
		return nil, fmt.Errorf("unmarshal brand kit %s: %w", rows[0].String("id"), err)
	}
	kit.ID = rows[0].String("id")
	return &kit, nil
}

func (r *Repository) loadPages(ctx context.Context, documentID string) ([]Page, error) {
	pageRows, err := r.store.List(ctx, store.ColPages, store.Filter{"document_id": documentID}, "sort_order")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make([]Page, 0, len(pageRows))
	for i, pr := range pageRows {
		page := Page{
			ID:         pr.String("id"),
			Width:      pr.Float("width"),
			Height:     pr.Float("height"),
			Background: pr.String("background"),
			Layers:     map[string]Layer{},
			Order:      []string{},
			SortOrder:  i, // ranks may be sparse in storage; re-rank densely
		}

		layerRows, err := r.store.List(ctx, store.ColLayers, store.Filter{"page_id": page.ID}, "sort_order")
		if err != nil {
			return nil, fmt.Errorf("list layers for page %s: %w", page.ID, err)
		}
		for _, lr := range layerRows {
			var layer Layer
			if err := json.Unmarshal(lr.Bytes("payload"), &layer); err != nil {
				return nil, fmt.Errorf("unmarshal layer %s: %w", lr.String("id"), err)
			}
			page.Layers[layer.ID] = layer
			if layer.Parent == nil {
				page.Order = append(page.Order, layer.ID)
			}
		}

		pages = append(pages, page)
	}
	return pages, nil
}

func (r *Repository) loadTimeline(ctx context.Context, documentID string) (*Timeline, error) {
	tlRows, err := r.store.List(ctx, store.ColTimelines, store.Filter{"document_id": documentID}, "")
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	if len(tlRows) == 0 {
		return nil, fmt.Errorf("video document %s has no timeline: %w", documentID, ErrNotFound)
	}
	tr := tlRows[0]

	tl := &Timeline{
		ID:       tr.String("id"),
		FPS:      tr.Float("fps"),
		Duration: tr.Float("duration"),
		Tracks:   []Track{},
	}

	trackRows, err := r.store.List(ctx, store.ColTracks, store.Filter{"timeline_id": tl.ID}, "sort_order")
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	for i, tkr := range trackRows {
		track := Track{
			ID:        tkr.String("id"),
			Type:      TrackType(tkr.String("type")),
			Clips:     []Clip{},
			SortOrder: i,
		}

		clipRows, err := r.store.List(ctx, store.ColClips, store.Filter{"track_id": track.ID}, "sort_order")
		if err != nil {
			return nil, fmt.Errorf("list clips for track %s: %w", track.ID, err)
		}
		for j, cr := range clipRows {
			clip := Clip{
				ID:        cr.String("id"),
				SourceRef: cr.String("source_ref"),
				In:        cr.Float("in_point"),
				Out:       cr.Float("out_point"),
				Start:     cr.Float("start_at"),
				SortOrder: j,
			}
			if payload := cr.Bytes("payload"); len(payload) > 0 {
				var extra clipPayload
				if err := json.Unmarshal(payload, &extra); err != nil {
					return nil, fmt.Errorf("unmarshal clip %s: %w", clip.ID, err)
				}
				clip.Keyframes = extra.Keyframes
				clip.Effects = extra.Effects
			}
			track.Clips = append(track.Clips, clip)
		}

		tl.Tracks = append(tl.Tracks, track)
	}
	return tl, nil
}

// clipPayload holds the clip fields without their own columns.
type clipPayload struct {
	Keyframes []Keyframe `json:"keyframes,omitempty"`
	Effects   []Effect   `json:"effects,omitempty"`
}

// Save flattens the whole document graph into row upserts. Used on first
// save and by the patch-engine write path; every write is idempotent.
func (r *Repository) Save(ctx context.Context, doc *Document) error {
	doc.Touch(time.Now())
	docRow := store.Row{
		"id":         doc.ID,
		"title":      doc.Title,
		"type":       string(doc.Kind),
		"owner_id":   doc.OwnerID,
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
	}
	if err := r.store.Insert(ctx, store.ColDocuments, docRow); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if doc.BrandKit != nil {
		payload, err := json.Marshal(doc.BrandKit)
		if err != nil {
			return fmt.Errorf("marshal brand kit: %w", err)
		}
		row := store.Row{"id": doc.BrandKit.ID, "document_id": doc.ID, "payload": payload}
		if err := r.store.Insert(ctx, store.ColBrandKits, row); err != nil {
			return fmt.Errorf("save brand kit: %w", err)
		}
	}

	for i := range doc.Pages {
		if err := r.savePage(ctx, doc.ID, &doc.Pages[i], i); err != nil {
			return err
		}
	}
	if doc.Timeline != nil {
		if err := r.saveTimeline(ctx, doc.ID, doc.Timeline); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) savePage(ctx context.Context, documentID string, page *Page, rank int) error {
	row := store.Row{
		"id":          page.ID,
		"document_id": documentID,
		"width":       page.Width,
		"height":      page.Height,
		"background":  page.Background,
		"sort_order":  rank,
	}
	if err := r.store.Insert(ctx, store.ColPages, row); err != nil {
		return fmt.Errorf("save page %s: %w", page.ID, err)
	}

	for id, layer := range page.Layers {
		payload, err := json.Marshal(layer)
		if err != nil {
			return fmt.Errorf("marshal layer %s: %w", id, err)
		}
		parentID := ""
		if layer.Parent != nil {
			parentID = *layer.Parent
		}
		lrow := store.Row{
			"id":         layer.ID,
			"page_id":    page.ID,
			"parent_id":  parentID,
			"type":       string(layer.Type),
			"payload":    payload,
			"sort_order": layer.SortOrder,
		}
		if err := r.store.Insert(ctx, store.ColLayers, lrow); err != nil {
			return fmt.Errorf("save layer %s: %w", layer.ID, err)
		}
	}
	return nil
}

func (r *Repository) saveTimeline(ctx context.Context, documentID string, tl *Timeline) error {
	row := store.Row{
		"id":          tl.ID,
		"document_id": documentID,
		"fps":         tl.FPS,
		"duration":    tl.Duration,
	}
	if err := r.store.Insert(ctx, store.ColTimelines, row); err != nil {
		return fmt.Errorf("save timeline %s: %w", tl.ID, err)
	}

	for i := range tl.Tracks {
		track := &tl.Tracks[i]
		trow := store.Row{
			"id":          track.ID,
			"timeline_id": tl.ID,
			"type":        string(track.Type),
			"sort_order":  i,
		}
		if err := r.store.Insert(ctx, store.ColTracks, trow); err != nil {
			return fmt.Errorf("save track %s: %w", track.ID, err)
		}

		for j := range track.Clips {
			clip := &track.Clips[j]
			payload, err := json.Marshal(clipPayload{Keyframes: clip.Keyframes, Effects: clip.Effects})
			if err != nil {
				return fmt.Errorf("marshal clip %s: %w", clip.ID, err)
			}
			crow := store.Row{
				"id":         clip.ID,
				"track_id":   track.ID,
				"source_ref": clip.SourceRef,
				"in_point":   clip.In,
				"out_point":  clip.Out,
				"start_at":   clip.Start,
				"payload":    payload,
				"sort_order": j,
			}
			if err := r.store.Insert(ctx, store.ColClips, crow); err != nil {
				return fmt.Errorf("save clip %s: %w", clip.ID, err)
			}
		}
	}
	return nil
}

// UpdateFields are the document scalars Update may touch. Nested collections
// go through Save.
type UpdateFields struct {
	Title   *string `json:"title,omitempty"`
	OwnerID *string `json:"ownerId,omitempty"`
}

func (r *Repository) Update(ctx context.Context, documentID string, fields UpdateFields) error {
	row := store.Row{"updated_at": time.Now().UTC()}
	if fields.Title != nil {
		row["title"] = *fields.Title
	}
	if fields.OwnerID != nil {
		row["owner_id"] = *fields.OwnerID
	}

	if err := r.store.Update(ctx, store.ColDocuments, documentID, row); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (r *Repository) List(ctx context.Context, ownerID string) ([]Summary, error) {
	filter := store.Filter{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}
	rows, err := r.store.List(ctx, store.ColDocuments, filter, "")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Summary{
			ID:        row.String("id"),
			Title:     row.String("title"),
			Kind:      Kind(row.String("type")),
			OwnerID:   row.String("owner_id"),
			CreatedAt: row.Time("created_at"),
			UpdatedAt: row.Time("updated_at"),
		})
	}
	return out, nil
}

// Snapshot persists an immutable point-in-time copy of the document, tagged
// with its author. The caller keeps editing; a failure here is the caller's
// to log, never to surface into the editing loop.
func (r *Repository) Snapshot(ctx context.Context, doc *Document, author string) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	snapshotID := typeid.NewSnapshotID()
	row := store.Row{
		"id":          snapshotID,
		"document_id": doc.ID,
		"author":      author,
		"payload":     payload,
		"created_at":  time.Now().UTC(),
	}
	if err := r.store.Insert(ctx, store.ColSnapshots, row); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return snapshotID, nil
}

// GetSnapshot returns a snapshot's serialized document.
func (r *Repository) GetSnapshot(ctx context.Context, snapshotID string) (json.RawMessage, error) {
	row, err := r.store.Get(ctx, store.ColSnapshots, snapshotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return json.RawMessage(row.Bytes("payload")), nil
}

// Delete removes the document and every dependent row. The SQL backends also
// cascade through foreign keys; deleting children explicitly keeps the
// memory backend consistent and stays idempotent either way.
func (r *Repository) Delete(ctx context.Context, documentID string) error {
	doc, err := r.Load(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load for delete: %w", err)
	}

	for i := range doc.Pages {
		page := &doc.Pages[i]
		for id := range page.Layers {
			if err := r.store.Delete(ctx, store.ColLayers, id); err != nil {
				return fmt.Errorf("delete layer %s: %w", id, err)
			}
		}
		if err := r.store.Delete(ctx, store.ColPages, page.ID); err != nil {
			return fmt.Errorf("delete page %s: %w", page.ID, err)
		}
	}
	if doc.Timeline != nil {
		for i := range doc.Timeline.Tracks {
			track := &doc.Timeline.Tracks[i]
			for j := range track.Clips {
				if err := r.store.Delete(ctx, store.ColClips, track.Clips[j].ID); err != nil {
					return fmt.Errorf("delete clip %s: %w", track.Clips[j].ID, err)
				}
			}
			if err := r.store.Delete(ctx, store.ColTracks, track.ID); err != nil {
				return fmt.Errorf("delete track %s: %w", track.ID, err)
			}
		}
		if err := r.store.Delete(ctx, store.ColTimelines, doc.Timeline.ID); err != nil {
			return fmt.Errorf("delete timeline %s: %w", doc.Timeline.ID, err)
		}
	}
	if doc.BrandKit != nil {
		if err := r.store.Delete(ctx, store.ColBrandKits, doc.BrandKit.ID); err != nil {
			return fmt.Errorf("delete brand kit %s: %w", doc.BrandKit.ID, err)
		}
	}

	snaps, err := r.store.List(ctx, store.ColSnapshots, store.Filter{"document_id": documentID}, "")
	if err == nil {
		for _, snap := range snaps {
			if err := r.store.Delete(ctx, store.ColSnapshots, snap.String("id")); err != nil {
				r.log.Warn().Err(err).Str("snapshot", snap.String("id")).Msg("delete snapshot")
			}
		}
	}

	if err := r.store.Delete(ctx, store.ColDocuments, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
