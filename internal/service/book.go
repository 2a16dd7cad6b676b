package service

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/listenupapp/bookstore-server/internal/domain"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/store"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

// MsgBookNotFound is returned for missing books and for books owned by someone else.
const MsgBookNotFound = "Book not found"

var bookFieldOrder = []string{"title", "author", "category_id", "description", "cover_image", "pdf_file"}

// BookService manages a user's own books and their uploaded files.
// Every lookup is scoped to the caller, so another user's book is
// indistinguishable from a missing one.
type BookService struct {
	store     store.Store
	files     files.Storage
	validator *validation.Validator
	cleanup   CleanupRecorder
	logger    *slog.Logger
}

// CleanupRecorder is notified when a stored file could not be removed.
type CleanupRecorder interface {
	FileCleanupFailed(dir string)
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, storage files.Storage, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		files:     storage,
		validator: orNewValidator(validator),
		logger:    orDiscard(logger),
	}
}

// SetCleanupRecorder sets the recorder notified of failed file removals.
func (s *BookService) SetCleanupRecorder(r CleanupRecorder) {
	s.cleanup = r
}

// CreateBookRequest is the input of Create. Any user_id the client sends is ignored.
type CreateBookRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Author      string  `json:"author" validate:"required,max=255"`
	CategoryID  string  `json:"category_id" validate:"required"`
	Description *string `json:"description"`
	CoverImage  *Upload `json:"-"`
	PDFFile     *Upload `json:"-"`
}

// UpdateBookRequest is the input of Update. Nil fields are left unchanged.
type UpdateBookRequest struct {
	Title       *string `json:"title" validate:"omitnil,filled,max=255"`
	Author      *string `json:"author" validate:"omitnil,filled,max=255"`
	CategoryID  *string `json:"category_id" validate:"omitnil,filled"`
	Description *string `json:"description"`
	CoverImage  *Upload `json:"-"`
	PDFFile     *Upload `json:"-"`
}

// List returns the caller's books, optionally limited to one category.
// A category filter that is not a valid ID matches nothing.
func (s *BookService) List(ctx context.Context, p *Principal, categoryID *string) ([]*domain.Book, error) {
	filter := domain.BookFilter{UserID: p.UserID()}
	if categoryID != nil {
		id, ok := parseID(*categoryID)
		if !ok {
			return []*domain.Book{}, nil
		}
		filter.CategoryID = &id
	}

	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list books")
	}
	return books, nil
}

// Get returns one of the caller's books.
func (s *BookService) Get(ctx context.Context, p *Principal, id int64) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, id, p.UserID())
	if err != nil {
		return nil, notFoundOr(err, MsgBookNotFound, "get book")
	}
	return book, nil
}

// Create validates the input, stores any uploads and inserts a book owned by the caller.
func (s *BookService) Create(ctx context.Context, p *Principal, req CreateBookRequest) (*domain.Book, error) {
	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}

	categoryID, err := referenceExists(ctx, &fields, "category_id", req.CategoryID, s.store.CategoryExists)
	if err != nil {
		return nil, err
	}
	checkUpload(&fields, "cover_image", req.CoverImage, files.CoverImageRule)
	checkUpload(&fields, "pdf_file", req.PDFFile, files.PDFRule)

	if err := validationFailed(fields, bookFieldOrder...); err != nil {
		return nil, err
	}

	book := &domain.Book{
		UserID:      p.UserID(),
		CategoryID:  categoryID,
		Title:       req.Title,
		Author:      req.Author,
		Description: nullIfEmpty(req.Description),
	}
	book.InitTimestamps()

	stored, err := s.storeUploads(ctx, book, req.CoverImage, req.PDFFile)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.removeFiles(ctx, stored...)
		return nil, s.writeError(err, "create book")
	}

	s.logger.Info("book created", "book_id", book.ID, "user_id", book.UserID)
	return book, nil
}

// Update applies a partial update to one of the caller's books. Replaced
// files are removed once the new row is saved.
func (s *BookService) Update(ctx context.Context, p *Principal, id int64, req UpdateBookRequest) (*domain.Book, error) {
	book, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		categoryID, err := referenceExists(ctx, &fields, "category_id", *req.CategoryID, s.store.CategoryExists)
		if err != nil {
			return nil, err
		}
		book.CategoryID = categoryID
	}
	checkUpload(&fields, "cover_image", req.CoverImage, files.CoverImageRule)
	checkUpload(&fields, "pdf_file", req.PDFFile, files.PDFRule)

	if err := validationFailed(fields, bookFieldOrder...); err != nil {
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Description != nil {
		book.Description = nullIfEmpty(req.Description)
	}

	previous := []*string{book.CoverImage, book.PDFFile}
	stored, err := s.storeUploads(ctx, book, req.CoverImage, req.PDFFile)
	if err != nil {
		return nil, err
	}
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		s.removeFiles(ctx, stored...)
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(MsgBookNotFound)
		}
		return nil, s.writeError(err, "update book")
	}

	var replaced []string
	if req.CoverImage != nil && previous[0] != nil {
		replaced = append(replaced, *previous[0])
	}
	if req.PDFFile != nil && previous[1] != nil {
		replaced = append(replaced, *previous[1])
	}
	s.removeFiles(ctx, replaced...)

	return book, nil
}

// Delete removes one of the caller's books and its files.
func (s *BookService) Delete(ctx context.Context, p *Principal, id int64) error {
	book, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, book.ID, p.UserID()); err != nil {
		return notFoundOr(err, MsgBookNotFound, "delete book")
	}

	var paths []string
	for _, f := range []*string{book.CoverImage, book.PDFFile} {
		if f != nil {
			paths = append(paths, *f)
		}
	}
	s.removeFiles(ctx, paths...)

	s.logger.Info("book deleted", "book_id", book.ID, "user_id", book.UserID)
	return nil
}

// storeUploads writes the given uploads and records their paths on book.
// On failure every file written so far is removed again.
func (s *BookService) storeUploads(ctx context.Context, book *domain.Book, cover, pdf *Upload) ([]string, error) {
	var stored []string

	put := func(dir string, up *Upload) (*string, error) {
		name, err := s.files.Put(ctx, dir, up.Data, files.Detect(up.Data).MIME)
		if err != nil {
			s.removeFiles(ctx, stored...)
			return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "store %s", dir)
		}
		stored = append(stored, name)
		return &name, nil
	}

	if cover != nil {
		name, err := put(domain.CoverImageDir, cover)
		if err != nil {
			return nil, err
		}
		book.CoverImage = name
	}
	if pdf != nil {
		name, err := put(domain.PDFDir, pdf)
		if err != nil {
			return nil, err
		}
		book.PDFFile = name
	}
	return stored, nil
}

// removeFiles deletes stored files. Failures are logged, never returned.
func (s *BookService) removeFiles(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if err := s.files.Delete(ctx, p); err != nil {
			s.logger.WarnContext(ctx, "failed to delete book file", "path", p, "error", err)
			if s.cleanup != nil {
				s.cleanup.FileCleanupFailed(path.Dir(p))
			}
		}
	}
}

// writeError maps a failed insert or update. A conflict means the category
// vanished between validation and the write.
func (s *BookService) writeError(err error, op string) error {
	if errors.Is(err, store.ErrConflict) {
		var fields domainerrors.FieldErrors
		fields.Add("category_id", "The selected category id is invalid.")
		return validationFailed(fields)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, op)
}
