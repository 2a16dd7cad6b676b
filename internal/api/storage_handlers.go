package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/media/files"
)

// handleStorageFile serves an uploaded cover or PDF by its stored path,
// e.g. GET /storage/cover_images/abc.png.
func (s *Server) handleStorageFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	data, contentType, err := s.storage.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) || errors.Is(err, files.ErrInvalidPath) {
			response.NotFound(w, response.MsgRouteNotFound, s.logger)
			return
		}
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(data))
}
