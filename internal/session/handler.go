package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/export"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/patch"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

type Handler struct {
	manager        *Manager
	log            zerolog.Logger
	metrics        *metrics.Metrics
	allowedOrigins []string
}

func NewHandler(manager *Manager, log zerolog.Logger, m *metrics.Metrics, allowedOrigins []string) *Handler {
	return &Handler{manager: manager, log: log, metrics: m, allowedOrigins: allowedOrigins}
}

// Open installs an editing session for the document, loading its persisted
// scene when one exists.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	s, err := h.manager.Open(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, ErrStaleLoad) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "load superseded"})
			return
		}
		h.log.Error().Err(err).Str("document", documentID).Msg("open session failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documentId": s.DocumentID,
		"scene":      s.Scene(),
		"dirty":      s.Dirty(),
	})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	if err := h.manager.Close(r.Context(), documentID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "flush failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Scene())
}

type replaceRequest struct {
	Scene *scene.Scene `json:"scene"`
}

// ReplaceScene installs a freshly compiled or re-themed scene as the new
// editing baseline.
func (h *Handler) ReplaceScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Scene == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Scene.Nodes == nil {
		req.Scene.Nodes = map[string]scene.Node{}
	}

	s.Replace(req.Scene)
	h.afterMutation(s)
	writeJSON(w, http.StatusOK, s.Scene())
}

// SubmitPatch applies one patch to the session's scene. Rejected patches
// leave the scene untouched and report the reason; the client keeps editing.
func (h *Handler) SubmitPatch(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var p patch.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	applied, err := s.Submit(p)
	if err != nil {
		h.metrics.PatchesRejected.Inc()
		var invalid *patch.InvalidPatchError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":  "invalid patch",
				"nodeId": invalid.NodeID,
				"reason": invalid.Reason,
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.metrics.PatchesApplied.WithLabelValues(string(p.Op)).Inc()
	h.afterMutation(s)

	writeJSON(w, http.StatusOK, map[string]any{
		"changed": applied.Changed,
		"canUndo": s.CanUndo(),
		"canRedo": s.CanRedo(),
	})
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	undone, err := s.Undo()
	if err != nil {
		h.log.Error().Err(err).Msg("undo failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "undo failed"})
		return
	}
	if undone {
		h.metrics.UndosTotal.Inc()
		h.afterMutation(s)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"undone":  undone,
		"canUndo": s.CanUndo(),
		"canRedo": s.CanRedo(),
	})
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	redone, err := s.Redo()
	if err != nil {
		h.log.Error().Err(err).Msg("redo failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "redo failed"})
		return
	}
	if redone {
		h.metrics.RedosTotal.Inc()
		h.afterMutation(s)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"redone":  redone,
		"canUndo": s.CanUndo(),
		"canRedo": s.CanRedo(),
	})
}

type translateRequest struct {
	Instruction string `json:"instruction"`
	Apply       bool   `json:"apply"`
}

// Translate turns a free-form edit instruction into patches. With apply set,
// the patches are applied immediately; a translation that resolves nothing
// is reported, never treated as a failed request.
func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Instruction == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "instruction is required"})
		return
	}

	patches, err := s.Translate(req.Instruction)
	if err != nil {
		if errors.Is(err, patch.ErrNoMatchingTarget) {
			h.metrics.TranslationsTotal.WithLabelValues("no_match").Inc()
			writeJSON(w, http.StatusOK, map[string]any{
				"patches": []patch.Patch{},
				"warning": "no matching target",
			})
			return
		}
		h.metrics.TranslationsTotal.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.metrics.TranslationsTotal.WithLabelValues("ok").Inc()

	applied := 0
	if req.Apply {
		for _, p := range patches {
			if _, err := s.Submit(p); err != nil {
				h.metrics.PatchesRejected.Inc()
				h.log.Warn().Err(err).Msg("translated patch rejected")
				continue
			}
			h.metrics.PatchesApplied.WithLabelValues(string(p.Op)).Inc()
			applied++
		}
		if applied > 0 {
			h.afterMutation(s)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patches": patches,
		"applied": applied,
	})
}

// Save flushes the session's scene synchronously.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.manager.Saver().Flush(r.Context(), s); err != nil {
		h.log.Error().Err(err).Str("document", s.DocumentID).Msg("save failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "save failed, edits retained"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dirty": s.Dirty()})
}

type snapshotRequest struct {
	Author string `json:"author"`
}

// Snapshot records a point-in-time copy without blocking the editor.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	// The write outlives the request: its context ends when the 202 is
	// written, which would cancel the store call mid-flight.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if _, err := h.manager.Saver().Snapshot(ctx, s, req.Author); err != nil {
			h.log.Error().Err(err).Str("document", s.DocumentID).Msg("snapshot failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "snapshot scheduled"})
}

// Preview upgrades to a websocket and streams standalone markup after every
// applied edit.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.log.Debug().Err(err).Msg("preview upgrade failed")
		return
	}

	initial := h.renderFrame(s)
	h.manager.Preview().Serve(r.Context(), s.DocumentID, conn, initial)
}

// afterMutation schedules persistence and pushes a fresh preview frame.
func (h *Handler) afterMutation(s *Session) {
	h.manager.Saver().Enqueue(s)
	if frame := h.renderFrame(s); frame != nil {
		h.manager.Preview().Broadcast(s.DocumentID, frame)
	}
}

func (h *Handler) renderFrame(s *Session) []byte {
	file, err := export.StandaloneMarkup(s.Scene(), export.Options{Title: s.DocumentID})
	if err != nil {
		h.log.Warn().Err(err).Str("document", s.DocumentID).Msg("preview render failed")
		return nil
	}
	return file.Content
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	documentID := mux.Vars(r)["documentId"]
	s, err := h.manager.Get(documentID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no open session"})
		return nil, false
	}
	return s, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
