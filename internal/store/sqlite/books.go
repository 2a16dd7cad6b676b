package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, user_id, category_id, title, author, description,
	cover_image, pdf_file, created_at, updated_at`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner rowScanner) (*domain.Book, error) {
	var (
		b           domain.Book
		description sql.NullString
		coverImage  sql.NullString
		pdfFile     sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&b.ID,
		&b.UserID,
		&b.CategoryID,
		&b.Title,
		&b.Author,
		&description,
		&coverImage,
		&pdfFile,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Description = stringPtr(description)
	b.CoverImage = stringPtr(coverImage)
	b.PDFFile = stringPtr(pdfFile)

	b.CreatedAt, b.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a new book and sets its ID.
// Returns store.ErrConflict if the owner or category does not exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			user_id, category_id, title, author, description,
			cover_image, pdf_file, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.UserID,
		book.CategoryID,
		book.Title,
		book.Author,
		nullableString(book.Description),
		nullableString(book.CoverImage),
		nullableString(book.PDFFile),
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	book.ID, err = res.LastInsertId()
	return err
}

// GetBook retrieves a book owned by userID.
// A book owned by someone else is reported as store.ErrNotFound.
func (s *Store) GetBook(ctx context.Context, id, userID int64) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ? AND user_id = ?`, id, userID)

	b, err := scanBook(row)
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

// ListBooks returns the filter owner's books ordered by ID, optionally
// restricted to a single category.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{filter.UserID}
	)
	if filter.CategoryID != nil {
		where = append(where, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE `+strings.Join(where, " AND ")+` ORDER BY id ASC`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]*domain.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook writes every mutable column of a book owned by book.UserID.
// Ownership is part of the WHERE clause, so a foreign book is store.ErrNotFound.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			category_id = ?, title = ?, author = ?, description = ?,
			cover_image = ?, pdf_file = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		book.CategoryID,
		book.Title,
		book.Author,
		nullableString(book.Description),
		nullableString(book.CoverImage),
		nullableString(book.PDFFile),
		formatTime(book.UpdatedAt),
		book.ID,
		book.UserID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// DeleteBook removes a book owned by userID. Its recommendations and
// transactions go with it.
func (s *Store) DeleteBook(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM books WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// BookExists reports whether any user owns a book with the given ID.
func (s *Store) BookExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`, id)
}
