package service

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookstore-server/internal/auth"
	"github.com/listenupapp/bookstore-server/internal/domain"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/store/sqlite"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

const testPassword = "Secret1!"

// testEnv bundles every service over one temporary database.
type testEnv struct {
	store           *sqlite.Store
	storage         *files.LocalStorage
	auth            *AuthService
	books           *BookService
	categories      *CategoryService
	recommendations *RecommendationService
	transactions    *TransactionService
	events          *recordedEvents
}

type recordedEvents struct {
	events []string
}

func (r *recordedEvents) AuthEvent(event string) {
	r.events = append(r.events, event)
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	storage, err := files.NewLocalStorage(filepath.Join(dir, "public"))
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	v := validation.New()
	events := &recordedEvents{}

	authService := NewAuthService(st, tokens, v, nil)
	authService.SetEventRecorder(events)

	return &testEnv{
		store:           st,
		storage:         storage,
		auth:            authService,
		books:           NewBookService(st, storage, v, nil),
		categories:      NewCategoryService(st, v, nil),
		recommendations: NewRecommendationService(st, v, nil),
		transactions:    NewTransactionService(st, v, nil),
		events:          events,
	}
}

// register creates a user through the auth service and resolves its token.
func (e *testEnv) register(t *testing.T, name, email string) (*Principal, string) {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterRequest{
		Name:                 name,
		Email:                email,
		Password:             testPassword,
		PasswordConfirmation: testPassword,
	})
	require.NoError(t, err)

	p, err := e.auth.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	return p, res.Token
}

func (e *testEnv) category(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), CreateCategoryRequest{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) book(t *testing.T, p *Principal, categoryID int64, title string) *domain.Book {
	t.Helper()
	b, err := e.books.Create(context.Background(), p, CreateBookRequest{
		Title:      title,
		Author:     "Author",
		CategoryID: itoa(categoryID),
	})
	require.NoError(t, err)
	return b
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// requireFieldError asserts err is a validation error carrying msg for field.
func requireFieldError(t *testing.T, err error, field, msg string) {
	t.Helper()
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, domainerrors.CodeValidation, domainErr.Code, "error: %v", err)
	assert.Contains(t, domainErr.Fields()[field], msg, "fields: %v", domainErr.Fields())
}

func strPtr(s string) *string { return &s }
