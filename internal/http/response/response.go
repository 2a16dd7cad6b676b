// Package response writes JSON bodies in the shapes API clients expect:
// resources are returned bare, failures as {"message"} and/or {"errors"}.
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
)

// Fixed client-facing messages.
const (
	MsgUnauthenticated = "Unauthenticated."
	MsgServerError     = "Server Error"
	MsgTooManyAttempts = "Too Many Attempts."
	MsgInvalidBody     = "Invalid request body"
	MsgRouteNotFound   = "Not Found"
)

// Style selects how validation failures are rendered for a route group.
type Style int

const (
	// StyleStrict renders validation failures as 422 {"message", "errors"}.
	StyleStrict Style = iota
	// StyleResource renders validation failures as 400 {"errors"}.
	StyleResource
)

// Message is the body of every message-only response.
type Message struct {
	Message string `json:"message"`
}

// Validation is the body of a field-level failure.
type Validation struct {
	Message string                   `json:"message,omitempty"`
	Errors  domainerrors.FieldErrors `json:"errors"`
}

// JSON writes data as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, data any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, data); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, data, logger)
}

// Created writes a 201 response.
func Created(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, data, logger)
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	JSON(w, status, Message{Message: msg}, logger)
}

// Unauthorized writes 401 {"message":"Unauthenticated."}.
func Unauthorized(w http.ResponseWriter, logger *slog.Logger) {
	WriteMessage(w, http.StatusUnauthorized, MsgUnauthenticated, logger)
}

// BadRequest writes 400 {"message": msg}.
func BadRequest(w http.ResponseWriter, msg string, logger *slog.Logger) {
	WriteMessage(w, http.StatusBadRequest, msg, logger)
}

// NotFound writes 404 {"message": msg}.
func NotFound(w http.ResponseWriter, msg string, logger *slog.Logger) {
	WriteMessage(w, http.StatusNotFound, msg, logger)
}

// TooManyRequests writes 429 {"message":"Too Many Attempts."}.
func TooManyRequests(w http.ResponseWriter, logger *slog.Logger) {
	WriteMessage(w, http.StatusTooManyRequests, MsgTooManyAttempts, logger)
}

// InternalError writes 500 {"message":"Server Error"}.
func InternalError(w http.ResponseWriter, logger *slog.Logger) {
	WriteMessage(w, http.StatusInternalServerError, MsgServerError, logger)
}

// HandleError writes the response for err. Domain errors map to their
// status; anything else is logged and hidden behind a 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error, style Style, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		logUnhandled(r, err, logger)
		InternalError(w, logger)
		return
	}

	switch domainErr.Code {
	case domainerrors.CodeValidation:
		if style == StyleResource {
			JSON(w, http.StatusBadRequest, Validation{Errors: fieldsOrEmpty(domainErr)}, logger)
			return
		}
		JSON(w, http.StatusUnprocessableEntity, Validation{
			Message: domainErr.Message,
			Errors:  fieldsOrEmpty(domainErr),
		}, logger)
	case domainerrors.CodeInvalidCredentials:
		JSON(w, http.StatusUnprocessableEntity, Validation{
			Message: domainErr.Message,
			Errors:  fieldsOrEmpty(domainErr),
		}, logger)
	case domainerrors.CodeUnauthorized:
		Unauthorized(w, logger)
	case domainerrors.CodeTooManyRequests:
		TooManyRequests(w, logger)
	case domainerrors.CodeInternal:
		logUnhandled(r, err, logger)
		InternalError(w, logger)
	default:
		WriteMessage(w, domainErr.HTTPStatus(), domainErr.Message, logger)
	}
}

func fieldsOrEmpty(e *domainerrors.Error) domainerrors.FieldErrors {
	if fields := e.Fields(); fields != nil {
		return fields
	}
	return domainerrors.FieldErrors{}
}

func logUnhandled(r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		return
	}
	if r != nil {
		logger.ErrorContext(r.Context(), "Unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		return
	}
	logger.Error("Unhandled error", "error", err)
}
