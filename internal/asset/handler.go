// Package asset stores uploaded images on local disk and serves them back.
// Image layers reference uploads through assetRef, brand kits through
// logoRef, and timeline clips through sourceRef; all three resolve against
// this store.
package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/brandlane/brandlane/studio-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// Store owns the on-disk asset directory. Files are keyed by their typeid
// ref and never rewritten, so serving can mark them immutable.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(ref string) string {
	return filepath.Join(s.dir, ref+".png")
}

// Remove deletes a stored asset. Missing files are reported, not ignored,
// so cleanup jobs can tell a stale ref from a successful delete.
func (s *Store) Remove(ref string) error {
	if err := os.Remove(s.path(ref)); err != nil {
		return fmt.Errorf("remove asset %s: %w", ref, err)
	}
	return nil
}

// Upload describes a stored asset. Ref is the value image layers carry in
// assetRef.
type Upload struct {
	Ref    string `json:"ref"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

type Handler struct {
	assets *Store
	log    zerolog.Logger
}

func NewHandler(assets *Store, log zerolog.Logger) *Handler {
	return &Handler{assets: assets, log: log}
}

// Upload accepts a multipart form with a "file" field holding a PNG or JPEG
// image. Everything is normalized to PNG on disk; the response carries the
// ref and the intrinsic dimensions the schema needs for naturalWidth and
// naturalHeight.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only PNG and JPEG images are supported"})
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid image"})
		return
	}
	bounds := img.Bounds()

	ref := typeid.NewFileID()
	out, err := os.Create(h.assets.path(ref))
	if err != nil {
		h.log.Error().Err(err).Str("ref", ref).Msg("create asset file")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save file"})
		return
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		h.log.Error().Err(err).Str("ref", ref).Msg("encode asset")
		os.Remove(h.assets.path(ref))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to encode image"})
		return
	}

	h.log.Info().Str("ref", ref).Str("name", header.Filename).
		Int("width", bounds.Dx()).Int("height", bounds.Dy()).Msg("asset uploaded")

	writeJSON(w, http.StatusCreated, Upload{
		Ref:    ref,
		URL:    "/assets/" + ref + ".png",
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Name:   header.Filename,
	})
}

// Serve returns the file server for stored assets. Refs are unique, so
// responses are cacheable forever.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.assets.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
