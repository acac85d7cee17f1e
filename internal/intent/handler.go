package intent

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/metrics"
)

type Handler struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewHandler(log zerolog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{log: log, metrics: m}
}

// Compile turns a posted mockup spec into a scene. Warnings travel in the
// response body; only an unreadable request is an error.
func (h *Handler) Compile(w http.ResponseWriter, r *http.Request) {
	var spec Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(spec.Sections) == 0 {
		http.Error(w, "spec has no sections", http.StatusBadRequest)
		return
	}

	s, res := Compile(spec)
	h.metrics.CompilesTotal.Inc()
	h.metrics.CompileWarnings.Add(float64(len(res.Warnings)))

	h.log.Info().
		Int("sections", res.Sections).
		Int("skipped", res.Skipped).
		Msg("mockup spec compiled")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"scene":  s,
		"result": res,
	})
}
