package api

import (
	"net/http"

	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context())
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, txs, s.logger)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgTransactionNotFound)
	if !ok {
		return
	}

	tx, err := s.transactions.Get(r.Context(), id)
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, tx, s.logger)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	tx, err := s.transactions.Create(r.Context(), service.CreateTransactionRequest{
		UserID:             f.value("user_id"),
		BookID:             f.value("book_id"),
		TransactionDetails: transactionDetails(f),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.Created(w, tx, s.logger)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgTransactionNotFound)
	if !ok {
		return
	}
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	tx, err := s.transactions.Update(r.Context(), id, service.UpdateTransactionRequest{
		TransactionDetails: transactionDetails(f),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, tx, s.logger)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, service.MsgTransactionNotFound)
	if !ok {
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, deleted("Transaction deleted successfully"), s.logger)
}

func transactionDetails(f *form) service.TransactionDetails {
	return service.TransactionDetails{
		Type:   f.value("transaction_type"),
		Amount: f.value("amount"),
		Status: f.value("status"),
	}
}
