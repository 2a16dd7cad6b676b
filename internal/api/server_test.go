package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/metrics"
	"github.com/listenupapp/bookstore-server/internal/ratelimit"
	"github.com/listenupapp/bookstore-server/internal/service"
	"github.com/listenupapp/bookstore-server/internal/store/sqlite"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

const testPassword = "Secret1!"

var (
	testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	testPDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.Metrics
	store   *sqlite.Store
}

func newTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()
	return newTestServerWithOptions(t, Options{AuthLimiter: limiter})
}

// newTestServerWithOptions fills in DB, Storage and Metrics on top of opts.
func newTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	storage, err := files.NewLocalStorage(filepath.Join(dir, "public"))
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	v := validation.New()
	m := metrics.New()
	authService := service.NewAuthService(st, tokens, v, nil)
	authService.SetEventRecorder(m)

	srv := NewServer(&Services{
		Auth:           authService,
		Book:           service.NewBookService(st, storage, v, nil),
		Category:       service.NewCategoryService(st, v, nil),
		Recommendation: service.NewRecommendationService(st, v, nil),
		Transaction:    service.NewTransactionService(st, v, nil),
	}, withInfra(opts, st, storage, m), nil)

	return &testServer{t: t, handler: srv, metrics: m, store: st}
}

func withInfra(opts Options, st *sqlite.Store, storage files.Storage, m *metrics.Metrics) Options {
	opts.DB = st
	opts.Storage = storage
	opts.Metrics = m
	return opts
}

// do sends a JSON request (body may be nil) and returns the recorder.
func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// upload sends a multipart request with the given fields and files.
func (ts *testServer) upload(method, path, token string, fields map[string]string, uploads map[string][]byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ts.t, mw.WriteField(k, v))
	}
	for k, data := range uploads {
		fw, err := mw.CreateFormFile(k, k+".bin")
		require.NoError(ts.t, err)
		_, err = fw.Write(data)
		require.NoError(ts.t, err)
	}
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) register(name, email string) (token string, userID int64) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/register", "", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              testPassword,
		"password_confirmation": testPassword,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(ts.t, rec)
	user := body["user"].(map[string]any)
	return body["token"].(string), int64(user["id"].(float64))
}

func (ts *testServer) createCategory(token, name string) int64 {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/categories", token, map[string]string{"name": name})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(ts.t, rec)["id"].(float64))
}

func (ts *testServer) createBook(token string, categoryID int64, title string) int64 {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/books", token, map[string]any{
		"title":       title,
		"author":      "Frank Herbert",
		"category_id": categoryID,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(ts.t, rec)["id"].(float64))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/register", "", map[string]string{
		"name":                  "Alice",
		"email":                 "alice@example.com",
		"password":              testPassword,
		"password_confirmation": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "User registered successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "PasswordHash")

	rec = ts.do(http.MethodPost, "/api/login", "", map[string]string{"email": "alice@example.com", "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Logged in successfully", body["message"])
	token := body["token"].(string)

	rec = ts.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Alice", body["user"].(map[string]any)["name"])

	rec = ts.do(http.MethodPost, "/api/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decode(t, rec)["token"].(string)
	assert.NotEqual(t, token, refreshed)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/user", token, nil).Code, "refresh revokes the presented token")
	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/user", refreshed, nil).Code)

	rec = ts.do(http.MethodPost, "/api/logout", refreshed, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "success", "message": "Logged out successfully"}, decode(t, rec))

	rec = ts.do(http.MethodGet, "/api/user", refreshed, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, map[string]any{"message": "Unauthenticated."}, decode(t, rec))
}

func TestRegister_ValidationIsUnprocessable(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/register", "", map[string]string{
		"email":                 "not-an-email",
		"password":              testPassword,
		"password_confirmation": "different",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["message"])
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password_confirmation")
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.register("Alice", "alice@example.com")

	rec := ts.do(http.MethodPost, "/api/login", "", map[string]string{"email": "alice@example.com", "password": "Wrong-pass1!"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, service.MsgInvalidCredentials, body["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, nil)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/books"},
		{http.MethodPost, "/api/books"},
		{http.MethodGet, "/api/user"},
		{http.MethodPost, "/api/logout"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/recommendations"},
		{http.MethodPost, "/api/categories"},
		{http.MethodDelete, "/api/categories/1"},
	}
	for _, p := range paths {
		rec := ts.do(p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)

		rec = ts.do(p.method, p.path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s with bad token", p.method, p.path)
	}
}

func TestAuth_StoreFailureIsServerError(t *testing.T) {
	ts := newTestServer(t, nil)
	token, _ := ts.register("Ada", "ada@example.com")

	rec := ts.do(http.MethodGet, "/api/categories", "not-a-token", nil)
	require.Equal(t, http.StatusOK, rec.Code, "a bad token on a public route reads anonymously")

	require.NoError(t, ts.store.Close())

	rec = ts.do(http.MethodGet, "/api/user", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", decode(t, rec)["message"])

	rec = ts.do(http.MethodGet, "/api/categories", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", decode(t, rec)["message"])

	rec = ts.do(http.MethodGet, "/api/user", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthenticated.", decode(t, rec)["message"])
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t, nil)
	alice, _ := ts.register("Alice", "alice@example.com")
	bob, _ := ts.register("Bob", "bob@example.com")

	rec := ts.do(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/categories", alice, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.NotContains(t, body, "message")
	assert.Contains(t, body["errors"].(map[string]any), "name")

	fiction := ts.createCategory(alice, "Fiction")
	ts.createBook(alice, fiction, "Dune")
	ts.createBook(bob, fiction, "Emma")

	rec = ts.do(http.MethodGet, idPath("/api/categories", fiction), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 2, body["books_count"])
	books := body["books"].([]any)
	require.Len(t, books, 1, "only the caller's books are nested")
	assert.Equal(t, "Dune", books[0].(map[string]any)["title"])

	rec = ts.do(http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Empty(t, list[0]["books"])

	rec = ts.do(http.MethodPut, idPath("/api/categories", fiction), alice, map[string]string{"description": "Made up"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Made up", decode(t, rec)["description"])

	rec = ts.do(http.MethodDelete, idPath("/api/categories", fiction), alice, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgCategoryHasBooks, decode(t, rec)["message"])

	empty := ts.createCategory(alice, "Poetry")
	rec = ts.do(http.MethodDelete, idPath("/api/categories", empty), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Category deleted successfully", decode(t, rec)["message"])

	for _, path := range []string{idPath("/api/categories", empty), "/api/categories/abc"} {
		rec = ts.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, service.MsgCategoryNotFound, decode(t, rec)["message"], path)
	}
}

func TestBooks_OwnershipAndUploads(t *testing.T) {
	ts := newTestServer(t, nil)
	alice, aliceID := ts.register("Alice", "alice@example.com")
	bob, _ := ts.register("Bob", "bob@example.com")
	cat := ts.createCategory(alice, "Fiction")

	rec := ts.upload(http.MethodPost, "/api/books", alice, map[string]string{
		"title":       "Dune",
		"author":      "Frank Herbert",
		"category_id": strconv.FormatInt(cat, 10),
		"user_id":     "999",
	}, map[string][]byte{"cover_image": testPNG, "pdf_file": testPDF})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	book := decode(t, rec)
	assert.EqualValues(t, aliceID, book["user_id"], "owner comes from the token")
	cover, ok := book["cover_image"].(string)
	require.True(t, ok, "cover stored: %v", book)
	require.NotEmpty(t, book["pdf_file"])
	bookID := int64(book["id"].(float64))

	rec = ts.do(http.MethodGet, "/storage/"+cover, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, testPNG, rec.Body.Bytes())

	rec = ts.do(http.MethodGet, idPath("/api/books", bookID), bob, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgBookNotFound, decode(t, rec)["message"])

	rec = ts.do(http.MethodGet, "/api/books", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ts.do(http.MethodPatch, idPath("/api/books", bookID), alice, map[string]string{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dune Messiah", decode(t, rec)["title"])

	rec = ts.do(http.MethodDelete, idPath("/api/books", bookID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, idPath("/api/books", bookID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Book deleted successfully", decode(t, rec)["message"])

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/storage/"+cover, "", nil).Code, "files go with the book")
}

func TestBooks_ValidationIsBadRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	alice, _ := ts.register("Alice", "alice@example.com")
	cat := ts.createCategory(alice, "Fiction")

	rec := ts.upload(http.MethodPost, "/api/books", alice, map[string]string{
		"title":       "Dune",
		"author":      "Frank Herbert",
		"category_id": strconv.FormatInt(cat, 10),
	}, map[string][]byte{"cover_image": testPDF})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.NotContains(t, body, "message")
	assert.Equal(t,
		[]any{"The cover image field must be a file of type: jpeg, png, jpg, gif."},
		body["errors"].(map[string]any)["cover_image"])

	rec = ts.do(http.MethodPost, "/api/books", alice, map[string]any{"title": "Dune"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := decode(t, rec)["errors"].(map[string]any)
	assert.Contains(t, errs, "author")
	assert.Contains(t, errs, "category_id")
}

func TestTransactionsAndRecommendations(t *testing.T) {
	ts := newTestServer(t, nil)
	alice, aliceID := ts.register("Alice", "alice@example.com")
	cat := ts.createCategory(alice, "Fiction")
	bookID := ts.createBook(alice, cat, "Dune")

	rec := ts.do(http.MethodPost, "/api/transactions", alice, map[string]any{
		"user_id":          aliceID,
		"book_id":          bookID,
		"transaction_type": "purchase",
		"amount":           19.99,
		"status":           "pending",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode(t, rec)
	assert.Equal(t, "19.99", tx["amount"])
	txID := int64(tx["id"].(float64))

	rec = ts.do(http.MethodPut, idPath("/api/transactions", txID), alice, map[string]any{
		"transaction_type": "purchase",
		"amount":           "19.99",
		"status":           "refunded",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["message"])
	assert.Equal(t, []any{"The selected status is invalid."}, body["errors"].(map[string]any)["status"])

	rec = ts.do(http.MethodGet, "/api/transactions", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)

	rec = ts.do(http.MethodDelete, idPath("/api/transactions", txID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Transaction deleted successfully", decode(t, rec)["message"])

	rec = ts.do(http.MethodGet, idPath("/api/transactions", txID), alice, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, service.MsgTransactionNotFound, decode(t, rec)["message"])

	rec = ts.do(http.MethodPost, "/api/recommendations", alice, map[string]any{
		"user_id":                aliceID,
		"book_id":                bookID,
		"recommendation_message": "Read it twice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	recID := int64(decode(t, rec)["id"].(float64))

	rec = ts.do(http.MethodPut, idPath("/api/recommendations", recID), alice, map[string]any{"recommendation_message": "Thrice"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Thrice", decode(t, rec)["recommendation_message"])

	rec = ts.do(http.MethodDelete, idPath("/api/recommendations", recID), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Recommendation deleted successfully", decode(t, rec)["message"])
}

func TestInvalidBody(t *testing.T) {
	ts := newTestServer(t, nil)
	alice, _ := ts.register("Alice", "alice@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/categories", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode(t, rec)["message"])
}

func TestAuthRateLimit(t *testing.T) {
	limiter := ratelimit.PerMinute(2)
	t.Cleanup(limiter.Stop)
	ts := newTestServer(t, limiter)

	creds := map[string]string{"email": "nobody@example.com", "password": testPassword}
	for range 2 {
		assert.Equal(t, http.StatusUnprocessableEntity, ts.do(http.MethodPost, "/api/login", "", creds).Code)
	}

	rec := ts.do(http.MethodPost, "/api/login", "", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too Many Attempts.", decode(t, rec)["message"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/api/categories", "", nil).Code, "other routes are not throttled")
}

func TestAuthRateLimit_ForwardedHeaders(t *testing.T) {
	tests := []struct {
		name  string
		trust bool
		want  int
	}{
		{"ignored by default", false, http.StatusTooManyRequests},
		{"honored behind a proxy", true, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := ratelimit.PerMinute(1)
			t.Cleanup(limiter.Stop)
			ts := newTestServerWithOptions(t, Options{AuthLimiter: limiter, TrustProxyHeaders: tt.trust})

			login := func(forwardedFor string) int {
				req := httptest.NewRequest(http.MethodPost, "/api/login",
					strings.NewReader(`{"email":"nobody@example.com","password":"`+testPassword+`"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Forwarded-For", forwardedFor)
				rec := httptest.NewRecorder()
				ts.handler.ServeHTTP(rec, req)
				return rec.Code
			}

			require.Equal(t, http.StatusUnprocessableEntity, login("203.0.113.1"))
			assert.Equal(t, tt.want, login("203.0.113.2"))
		})
	}
}

func TestHealthMetricsAndFallbacks(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = ts.do(http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]any{"message": "Not Found"}, decode(t, rec))

	rec = ts.do(http.MethodGet, "/storage/../api.db", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookstore_http_requests_total")
}
