package response

import (
	"bytes"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestJSON_WritesBareBody(t *testing.T) {
	w := httptest.NewRecorder()
	Created(w, map[string]any{"id": 1, "title": "Dune"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.EqualValues(t, 1, body["id"])
	assert.NotContains(t, body, "data", "resources are not wrapped")
}

func TestHandleError(t *testing.T) {
	var fields domainerrors.FieldErrors
	fields.Add("title", "The title field is required.")
	validation := domainerrors.ValidationWithDetails("The title field is required.", fields)

	tests := []struct {
		name       string
		err        error
		style      Style
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "resource validation",
			err:        validation,
			style:      StyleResource,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"errors": map[string]any{"title": []any{"The title field is required."}}},
		},
		{
			name:       "strict validation",
			err:        validation,
			style:      StyleStrict,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: map[string]any{
				"message": "The title field is required.",
				"errors":  map[string]any{"title": []any{"The title field is required."}},
			},
		},
		{
			name:       "invalid credentials",
			err:        domainerrors.InvalidCredentials("Bad login").WithDetails(domainerrors.FieldErrors{"email": {"Bad login"}}),
			style:      StyleResource,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   map[string]any{"message": "Bad login", "errors": map[string]any{"email": []any{"Bad login"}}},
		},
		{
			name:       "not found",
			err:        fmt.Errorf("get book: %w", domainerrors.NotFound("Book not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"message": "Book not found"},
		},
		{
			name:       "conflict",
			err:        domainerrors.Conflict("Cannot delete category with books assigned"),
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"message": "Cannot delete category with books assigned"},
		},
		{
			name:       "unauthorized hides detail",
			err:        domainerrors.Unauthorized("token row missing"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"message": MsgUnauthenticated},
		},
		{
			name:       "rate limited",
			err:        domainerrors.ErrTooManyRequests,
			wantStatus: http.StatusTooManyRequests,
			wantBody:   map[string]any{"message": MsgTooManyAttempts},
		},
		{
			name:       "internal",
			err:        domainerrors.Internal("db exploded"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"message": MsgServerError},
		},
		{
			name:       "plain error",
			err:        errors.New("sqlite: disk I/O error"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"message": MsgServerError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, nil, tt.err, tt.style, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decode(t, w))
		})
	}
}

func TestHandleError_LogsCauseWithoutEchoingIt(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	HandleError(w, r, errors.New("secret connection string"), StyleStrict, logger)

	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, logs.String(), "secret connection string")
	assert.Contains(t, logs.String(), "/api/books")
}

func TestValidation_EmptyFieldsRenderAsObject(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, nil, domainerrors.Validation("bad"), StyleResource, nil)

	assert.JSONEq(t, `{"errors":{}}`, w.Body.String())
}
