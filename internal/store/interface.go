// Package store defines the persistence interface for the bookstore server.
//
// Lookups of a missing row return ErrNotFound, unique violations return
// ErrAlreadyExists and foreign key violations return ErrConflict. Book
// operations take the owning user id and never match another user's rows.
package store

import (
	"context"
	"time"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	// Access tokens
	CreateToken(ctx context.Context, token *domain.AccessToken) error
	GetToken(ctx context.Context, id string) (*domain.AccessToken, error)
	TouchToken(ctx context.Context, id string, usedAt time.Time) error
	DeleteToken(ctx context.Context, id string) error
	DeleteUserTokens(ctx context.Context, userID int64) (int64, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)

	// Categories
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	CategoryExists(ctx context.Context, id int64) (bool, error)
	CountCategoryBooks(ctx context.Context, id int64) (int64, error)

	// Books (owner scoped)
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id, userID int64) (*domain.Book, error)
	ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id, userID int64) error
	BookExists(ctx context.Context, id int64) (bool, error)

	// Recommendations
	CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error
	GetRecommendation(ctx context.Context, id int64) (*domain.Recommendation, error)
	ListRecommendations(ctx context.Context) ([]*domain.Recommendation, error)
	UpdateRecommendation(ctx context.Context, rec *domain.Recommendation) error
	DeleteRecommendation(ctx context.Context, id int64) error

	// Transactions
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
}
