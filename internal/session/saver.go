package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
	"github.com/brandlane/brandlane/studio-go/internal/store"
	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

const (
	saveRetries    = 3
	saveRetryDelay = 500 * time.Millisecond
)

type saveRequest struct {
	session *Session
	scene   *scene.Scene
	rev     int64
}

// Saver is the single persistence worker behind all sessions. Its queue
// holds at most one pending request: enqueueing while one is pending
// replaces it, so a burst of edits collapses into the latest state
// (last-write-wins). A failed save never touches session state; the session
// stays dirty and a later enqueue retries naturally.
type Saver struct {
	store   store.Store
	log     zerolog.Logger
	metrics *metrics.Metrics
	queue   chan saveRequest
}

func NewSaver(st store.Store, log zerolog.Logger, m *metrics.Metrics) *Saver {
	return &Saver{
		store:   st,
		log:     log,
		metrics: m,
		queue:   make(chan saveRequest, 1),
	}
}

// Enqueue schedules a save of the session's current scene. Never blocks: a
// pending request for the same burst is dropped in favor of this one.
func (sv *Saver) Enqueue(s *Session) {
	sc, rev := s.snapshotForSave()
	req := saveRequest{session: s, scene: sc, rev: rev}

	for {
		select {
		case sv.queue <- req:
			return
		default:
			// Queue full: evict the stale pending request and retry.
			select {
			case <-sv.queue:
			default:
			}
		}
	}
}

// Run drains the queue until ctx is cancelled. Call in its own goroutine.
func (sv *Saver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-sv.queue:
			sv.save(ctx, req)
		}
	}
}

// Flush persists the session's current scene synchronously, bypassing the
// queue. Used on session close and by the explicit save endpoint.
func (sv *Saver) Flush(ctx context.Context, s *Session) error {
	sc, rev := s.snapshotForSave()
	if err := sv.persist(ctx, s, sc); err != nil {
		sv.metrics.SavesTotal.WithLabelValues("error").Inc()
		return err
	}
	sv.metrics.SavesTotal.WithLabelValues("ok").Inc()
	s.markSaved(rev)
	return nil
}

func (sv *Saver) save(ctx context.Context, req saveRequest) {
	start := time.Now()

	var err error
	for attempt := 1; attempt <= saveRetries; attempt++ {
		err = sv.persist(ctx, req.session, req.scene)
		if err == nil {
			break
		}
		sv.log.Warn().Err(err).
			Str("document", req.session.DocumentID).
			Int("attempt", attempt).
			Msg("scene save failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(saveRetryDelay * time.Duration(attempt)):
		}
	}
	sv.metrics.SaveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		// In-memory edits survive; the session stays dirty for a retry.
		sv.metrics.SavesTotal.WithLabelValues("error").Inc()
		sv.log.Error().Err(err).
			Str("document", req.session.DocumentID).
			Msg("scene save abandoned after retries")
		return
	}

	sv.metrics.SavesTotal.WithLabelValues("ok").Inc()
	req.session.markSaved(req.rev)
}

func (sv *Saver) persist(ctx context.Context, s *Session, sc *scene.Scene) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	row := store.Row{
		"id":          s.SceneRowID,
		"document_id": s.DocumentID,
		"payload":     payload,
		"updated_at":  time.Now().UTC(),
	}
	if err := sv.store.Insert(ctx, store.ColScenes, row); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}

// Snapshot persists an immutable copy of the scene tagged with its author.
// Fire-and-forget from the editing path: callers run it in a goroutine and
// failures are logged, never surfaced to the editor.
func (sv *Saver) Snapshot(ctx context.Context, s *Session, author string) (string, error) {
	sc, _ := s.snapshotForSave()
	payload, err := json.Marshal(sc)
	if err != nil {
		sv.metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	snapshotID := typeid.NewSnapshotID()
	row := store.Row{
		"id":          snapshotID,
		"document_id": s.DocumentID,
		"author":      author,
		"payload":     payload,
		"created_at":  time.Now().UTC(),
	}
	if err := sv.store.Insert(ctx, store.ColSnapshots, row); err != nil {
		sv.metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	sv.metrics.SnapshotsTotal.WithLabelValues("ok").Inc()
	return snapshotID, nil
}
