package api

import (
	"net/http"

	"github.com/listenupapp/bookstore-server/internal/domain"
	"github.com/listenupapp/bookstore-server/internal/http/response"
	"github.com/listenupapp/bookstore-server/internal/service"
)

const statusSuccess = "success"

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

// StatusResponse is a bare {"status", "message"} acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// TokenResponse carries a refreshed token.
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// UserResponse carries the authenticated user.
type UserResponse struct {
	Status string       `json:"status"`
	User   *domain.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	result, err := s.auth.Register(r.Context(), service.RegisterRequest{
		Name:                 f.value("name"),
		Email:                f.value("email"),
		Password:             f.value("password"),
		PasswordConfirmation: f.value("password_confirmation"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}

	response.Created(w, AuthResponse{
		Status:  statusSuccess,
		Message: "User registered successfully",
		Token:   result.Token,
		User:    result.User,
	}, s.logger)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, ok := s.readForm(w, r)
	if !ok {
		return
	}

	result, err := s.auth.Login(r.Context(), service.LoginRequest{
		Email:    f.value("email"),
		Password: f.value("password"),
	})
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}

	response.OK(w, AuthResponse{
		Status:  statusSuccess,
		Message: "Logged in successfully",
		Token:   result.Token,
		User:    result.User,
	}, s.logger)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.Logout(r.Context(), principal(r.Context())); err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, StatusResponse{Status: statusSuccess, Message: "Logged out successfully"}, s.logger)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := s.auth.Refresh(r.Context(), principal(r.Context()))
	if err != nil {
		response.HandleError(w, r, err, response.StyleStrict, s.logger)
		return
	}
	response.OK(w, TokenResponse{Status: statusSuccess, Token: token}, s.logger)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	response.OK(w, UserResponse{Status: statusSuccess, User: principal(r.Context()).User}, s.logger)
}
