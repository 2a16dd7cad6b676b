package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/listenupapp/bookstore-server/internal/domain"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/store"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

// Category messages.
const (
	MsgCategoryNotFound = "Category not found"
	MsgCategoryHasBooks = "Cannot delete category with books assigned"
)

// CategoryService manages the shared category list.
// Reads are public; the caller only decides which books are attached.
type CategoryService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCategoryService creates a new category service.
func NewCategoryService(store store.Store, validator *validation.Validator, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:     store,
		validator: orNewValidator(validator),
		logger:    orDiscard(logger),
	}
}

// CreateCategoryRequest is the input of Create.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

// UpdateCategoryRequest is the input of Update. Nil fields are left unchanged.
type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitnil,filled,max=255"`
	Description *string `json:"description"`
}

// List returns every category with its book count. Books holds the caller's
// own books in each category, and is empty for an anonymous caller.
func (s *CategoryService) List(ctx context.Context, p *Principal) ([]*domain.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list categories")
	}

	byCategory, err := s.callerBooks(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		c.Books = byCategory[c.ID]
		if c.Books == nil {
			c.Books = []*domain.Book{}
		}
	}
	return categories, nil
}

// Get returns a category with its book count and the caller's books in it.
func (s *CategoryService) Get(ctx context.Context, p *Principal, id int64) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MsgCategoryNotFound, "get category")
	}

	byCategory, err := s.callerBooks(ctx, p, &id)
	if err != nil {
		return nil, err
	}
	category.Books = byCategory[id]
	if category.Books == nil {
		category.Books = []*domain.Book{}
	}
	return category, nil
}

// Create inserts a new category.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*domain.Category, error) {
	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}
	if err := validationFailed(fields, "name", "description"); err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:        req.Name,
		Description: nullIfEmpty(req.Description),
	}
	category.InitTimestamps()

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create category")
	}

	s.logger.Info("category created", "category_id", category.ID)
	return category, nil
}

// Update applies a partial update to a category.
func (s *CategoryService) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (*domain.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MsgCategoryNotFound, "get category")
	}

	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}
	if err := validationFailed(fields, "name", "description"); err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = nullIfEmpty(req.Description)
	}
	category.Touch()

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, notFoundOr(err, MsgCategoryNotFound, "update category")
	}
	return category, nil
}

// Delete removes a category that no book references.
// A category with books is refused with a conflict and left intact.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return notFoundOr(err, MsgCategoryNotFound, "get category")
	}

	count, err := s.store.CountCategoryBooks(ctx, id)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "count category books")
	}
	if count > 0 {
		return domainerrors.Conflict(MsgCategoryHasBooks)
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		// A book was added after the count; the foreign key refused the delete.
		if errors.Is(err, store.ErrConflict) {
			return domainerrors.Conflict(MsgCategoryHasBooks)
		}
		return notFoundOr(err, MsgCategoryNotFound, "delete category")
	}

	s.logger.Info("category deleted", "category_id", id)
	return nil
}

// callerBooks groups the caller's books by category.
func (s *CategoryService) callerBooks(ctx context.Context, p *Principal, categoryID *int64) (map[int64][]*domain.Book, error) {
	if p.UserID() == 0 {
		return nil, nil
	}

	books, err := s.store.ListBooks(ctx, domain.BookFilter{UserID: p.UserID(), CategoryID: categoryID})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list category books")
	}

	byCategory := make(map[int64][]*domain.Book)
	for _, b := range books {
		byCategory[b.CategoryID] = append(byCategory[b.CategoryID], b)
	}
	return byCategory, nil
}
