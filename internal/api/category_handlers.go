package api

import (
	"net/http"

	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context(), principal(r.Context()))
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, categories, s.logger)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgCategoryNotFound)
	if !ok {
		return
	}

	category, err := s.categories.Get(r.Context(), principal(r.Context()), id)
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, category, s.logger)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	category, err := s.categories.Create(r.Context(), service.CreateCategoryRequest{
		Name:        f.value("name"),
		Description: f.optional("description"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.Created(w, category, s.logger)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgCategoryNotFound)
	if !ok {
		return
	}
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	category, err := s.categories.Update(r.Context(), id, service.UpdateCategoryRequest{
		Name:        f.optional("name"),
		Description: f.optional("description"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, category, s.logger)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgCategoryNotFound)
	if !ok {
		return
	}

	if err := s.categories.Delete(r.Context(), id); err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, deleted("Category deleted successfully"), s.logger)
}
