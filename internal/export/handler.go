package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/metrics"
	"github.com/brandlane/brandlane/studio-go/internal/scene"
)

const maxRequestSize = 8 << 20 // 8MB of scene JSON

type Handler struct {
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewHandler(log zerolog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{log: log, metrics: m}
}

type exportRequest struct {
	Scene *scene.Scene `json:"scene"`
	Title string       `json:"title"`
	Name  string       `json:"name"`
}

// Export renders a posted scene. The {format} path variable selects the
// renderer: "standalone" streams a single HTML document back as a download,
// "component" returns the per-section fragments plus stylesheet as JSON.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	if format != "standalone" && format != "component" {
		http.Error(w, "invalid format: must be standalone or component", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Scene == nil || len(req.Scene.Nodes) == 0 {
		http.Error(w, "empty scene", http.StatusBadRequest)
		return
	}

	name := req.Name
	if name == "" {
		name = "design"
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	opts := Options{Title: req.Title}

	switch format {
	case "standalone":
		file, err := StandaloneMarkup(req.Scene, opts)
		if err != nil {
			h.log.Error().Err(err).Msg("standalone export failed")
			http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusUnprocessableEntity)
			return
		}
		h.metrics.ExportsTotal.WithLabelValues("standalone").Inc()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.html"`, name))
		w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
		w.Write(file.Content)

	case "component":
		files, err := ComponentMarkup(req.Scene, opts)
		if err != nil {
			h.log.Error().Err(err).Msg("component export failed")
			http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusUnprocessableEntity)
			return
		}
		h.metrics.ExportsTotal.WithLabelValues("component").Inc()

		type fileJSON struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		}
		out := make([]fileJSON, 0, len(files))
		for _, f := range files {
			out = append(out, fileJSON{Name: f.Name, Content: string(f.Content)})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"files": out})
	}

	h.log.Info().Str("format", format).Int("sections", len(req.Scene.Root)).Msg("export complete")
}
