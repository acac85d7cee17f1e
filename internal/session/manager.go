package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
	"github.com/brandlane/brandlane/studio-go/internal/store"
	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

// ErrStaleLoad marks a load whose result arrived after a newer load
// superseded it. The result is discarded; nothing was modified.
var ErrStaleLoad = errors.New("load superseded by a newer load")

// ErrNoSession is returned for operations against a document with no open
// session.
var ErrNoSession = errors.New("no open session for document")

// Manager tracks open sessions and guards the load path. Loads are keyed by
// a per-request id: only the most recently issued load may install a
// session, so a slow earlier response can never clobber a newer one.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session // documentID -> session
	latestReq string              // request id of the most recent Open

	store   store.Store
	saver   *Saver
	preview *Preview
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewManager(st store.Store, saver *Saver, preview *Preview, log zerolog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		store:    st,
		saver:    saver,
		preview:  preview,
		log:      log,
		metrics:  m,
	}
}

// Open loads the persisted scene for a document (or starts an empty one) and
// installs an editing session. If another Open is issued while this one's
// fetch is in flight, this result is discarded on arrival and ErrStaleLoad
// returned.
func (m *Manager) Open(ctx context.Context, documentID string) (*Session, error) {
	requestID := uuid.NewString()

	m.mu.Lock()
	if existing, ok := m.sessions[documentID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.latestReq = requestID
	m.mu.Unlock()

	sceneRowID, sc, err := m.fetchScene(ctx, documentID)
	if err != nil {
		m.metrics.LoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.latestReq != requestID {
		m.metrics.StaleLoads.Inc()
		m.log.Info().
			Str("document", documentID).
			Str("request", requestID).
			Msg("stale load discarded")
		return nil, ErrStaleLoad
	}
	if existing, ok := m.sessions[documentID]; ok {
		return existing, nil
	}

	s := newSession(documentID, sceneRowID, sc)
	m.sessions[documentID] = s
	m.metrics.LoadsTotal.WithLabelValues("ok").Inc()
	m.log.Info().Str("document", documentID).Int("nodes", len(sc.Nodes)).Msg("session opened")
	return s, nil
}

// Get returns the open session for a document.
func (m *Manager) Get(documentID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[documentID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Close flushes the session's scene and removes it. Closing an already
// closed session is a no-op.
func (m *Manager) Close(ctx context.Context, documentID string) error {
	m.mu.Lock()
	s, ok := m.sessions[documentID]
	delete(m.sessions, documentID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	if err := m.saver.Flush(ctx, s); err != nil {
		m.log.Error().Err(err).Str("document", documentID).Msg("flush on close failed")
		return err
	}
	return nil
}

// Saver exposes the persistence worker for handlers.
func (m *Manager) Saver() *Saver { return m.saver }

// Preview exposes the live preview hub for handlers.
func (m *Manager) Preview() *Preview { return m.preview }

// fetchScene loads the persisted scene row for a document, or returns a
// fresh empty scene and row id when none exists yet.
func (m *Manager) fetchScene(ctx context.Context, documentID string) (string, *scene.Scene, error) {
	rows, err := m.store.List(ctx, store.ColScenes, store.Filter{"document_id": documentID}, "")
	if err != nil {
		return "", nil, fmt.Errorf("list scenes: %w", err)
	}
	if len(rows) == 0 {
		return typeid.NewSceneID(), scene.New(), nil
	}

	var sc scene.Scene
	if err := json.Unmarshal(rows[0].Bytes("payload"), &sc); err != nil {
		return "", nil, fmt.Errorf("unmarshal scene %s: %w", rows[0].String("id"), err)
	}
	if sc.Nodes == nil {
		sc.Nodes = map[string]scene.Node{}
	}
	return rows[0].String("id"), &sc, nil
}
