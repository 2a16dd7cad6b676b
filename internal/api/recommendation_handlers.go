package api

import (
	"net/http"

	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.recommendations.List(r.Context())
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, recs, s.logger)
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgRecommendationNotFound)
	if !ok {
		return
	}

	rec, err := s.recommendations.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, rec, s.logger)
}

func (s *Server) handleCreateRecommendation(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	rec, err := s.recommendations.Create(r.Context(), service.CreateRecommendationRequest{
		UserID:  f.value("user_id"),
		BookID:  f.value("book_id"),
		Message: f.value("recommendation_message"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.Created(w, rec, s.logger)
}

func (s *Server) handleUpdateRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgRecommendationNotFound)
	if !ok {
		return
	}
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	rec, err := s.recommendations.Update(r.Context(), id, service.UpdateRecommendationRequest{
		Message: f.value("recommendation_message"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, rec, s.logger)
}

func (s *Server) handleDeleteRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgRecommendationNotFound)
	if !ok {
		return
	}

	if err := s.recommendations.Delete(r.Context(), id); err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, deleted("Recommendation deleted successfully"), s.logger)
}
