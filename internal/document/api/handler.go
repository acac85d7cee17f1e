package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/document"
	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/schema"
)

type Handler struct {
	repo     *document.Repository
	log      zerolog.Logger
	metrics  *metrics.Metrics
	maxDepth int
}

func NewHandler(repo *document.Repository, log zerolog.Logger, m *metrics.Metrics, maxDepth int) *Handler {
	return &Handler{repo: repo, log: log, metrics: m, maxDepth: maxDepth}
}

// Create validates the posted document input and persists the normalized
// result. Soft field problems are defaulted away during validation; only
// structural failures reach the client.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in schema.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := schema.Validate(&in, schema.Options{MaxDepth: h.maxDepth})
	if err != nil {
		h.metrics.ValidationFailures.Inc()
		writeValidationError(w, err)
		return
	}

	if err := h.repo.Save(r.Context(), doc); err != nil {
		h.log.Error().Err(err).Msg("create document failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// Validate normalizes a document input without persisting it, so clients
// can preview the defaulting/clamping a create would perform.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var in schema.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := schema.Validate(&in, schema.Options{MaxDepth: h.maxDepth})
	if err != nil {
		h.metrics.ValidationFailures.Inc()
		writeValidationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	doc, err := h.repo.Load(r.Context(), documentID)
	if err != nil {
		handleRepoError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")

	docs, err := h.repo.List(r.Context(), ownerID)
	if err != nil {
		h.log.Error().Err(err).Msg("list documents failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	var fields document.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if fields.Title == nil && fields.OwnerID == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no updatable fields"})
		return
	}

	if err := h.repo.Update(r.Context(), documentID, fields); err != nil {
		handleRepoError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	if err := h.repo.Delete(r.Context(), documentID); err != nil {
		handleRepoError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type snapshotRequest struct {
	Author string `json:"author"`
}

// Snapshot persists a point-in-time copy of the stored document.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, err := h.repo.Load(r.Context(), documentID)
	if err != nil {
		handleRepoError(w, h.log, err)
		return
	}

	snapshotID, err := h.repo.Snapshot(r.Context(), doc, req.Author)
	if err != nil {
		h.metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("document", documentID).Msg("snapshot failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	h.metrics.SnapshotsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusCreated, map[string]string{"snapshotId": snapshotID})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshotID := mux.Vars(r)["snapshotId"]

	payload, err := h.repo.GetSnapshot(r.Context(), snapshotID)
	if err != nil {
		handleRepoError(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var schemaErr *schema.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":  "schema violation",
			"path":   schemaErr.Path,
			"reason": schemaErr.Reason,
		})
	case errors.Is(err, schema.ErrMaxDepthExceeded):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "nesting too deep or cyclic",
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}

func handleRepoError(w http.ResponseWriter, log zerolog.Logger, err error) {
	if errors.Is(err, document.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	log.Error().Err(err).Msg("repository error")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
