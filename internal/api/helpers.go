package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/listenupapp/bookstore-server/internal/http/response"
)

// readForm parses the request input, writing the error response itself
// when the body cannot be read.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (*form, bool) {
	f, err := parseForm(r)
	if err == nil {
		return f, true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.WriteMessage(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", s.logger)
		return nil, false
	}

	s.logger.DebugContext(r.Context(), "unreadable request body", "path", r.URL.Path, "error", err)
	response.BadRequest(w, response.MsgInvalidBody, s.logger)
	return nil, false
}

// pathID parses the {id} route parameter. An ID that is not a positive
// integer cannot name a row, so it answers notFoundMsg.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, notFoundMsg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(w, notFoundMsg, s.logger)
		return 0, false
	}
	return id, true
}

// deleted is the body of a successful delete.
func deleted(msg string) response.Message {
	return response.Message{Message: msg}
}
