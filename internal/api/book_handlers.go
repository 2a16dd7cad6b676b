package api

import (
	"net/http"

	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	var categoryID *string
	if q := r.URL.Query(); q.Has("category_id") {
		v := q.Get("category_id")
		categoryID = &v
	}

	books, err := s.books.List(r.Context(), principal(r.Context()), categoryID)
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, books, s.logger)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgBookNotFound)
	if !ok {
		return
	}

	book, err := s.books.Get(r.Context(), principal(r.Context()), id)
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, book, s.logger)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	book, err := s.books.Create(r.Context(), principal(r.Context()), service.CreateBookRequest{
		Title:       f.value("title"),
		Author:      f.value("author"),
		CategoryID:  f.value("category_id"),
		Description: f.optional("description"),
		CoverImage:  f.file("cover_image"),
		PDFFile:     f.file("pdf_file"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.Created(w, book, s.logger)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgBookNotFound)
	if !ok {
		return
	}
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	book, err := s.books.Update(r.Context(), principal(r.Context()), id, service.UpdateBookRequest{
		Title:       f.optional("title"),
		Author:      f.optional("author"),
		CategoryID:  f.optional("category_id"),
		Description: f.optional("description"),
		CoverImage:  f.file("cover_image"),
		PDFFile:     f.file("pdf_file"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, book, s.logger)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgBookNotFound)
	if !ok {
		return
	}

	if err := s.books.Delete(r.Context(), principal(r.Context()), id); err != nil {
		response.HandleError(w, r, err, response.StyleResource, s.logger)
		return
	}
	response.OK(w, deleted("Book deleted successfully"), s.logger)
}
