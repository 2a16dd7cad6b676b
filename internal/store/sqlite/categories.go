package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// categoryColumns is the ordered list of columns selected in category queries,
// including the derived book count. Must match the scan order in scanCategory.
const categoryColumns = `c.id, c.name, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM books b WHERE b.category_id = c.id) AS books_count`

// scanCategory scans a sql.Row (or sql.Rows via its Scan method) into a domain.Category.
func scanCategory(scanner rowScanner) (*domain.Category, error) {
	var (
		c           domain.Category
		description sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(&c.ID, &c.Name, &description, &createdAt, &updatedAt, &c.BooksCount)
	if err != nil {
		return nil, err
	}

	c.Description = stringPtr(description)
	c.CreatedAt, c.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a new category and sets its ID.
func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		category.Name,
		nullableString(category.Description),
		formatTime(category.CreatedAt),
		formatTime(category.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	category.ID, err = res.LastInsertId()
	return err
}

// GetCategory retrieves a category and its total book count.
func (s *Store) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id)

	c, err := scanCategory(row)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

// ListCategories returns every category ordered by ID.
func (s *Store) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c ORDER BY c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory writes name and description of an existing category.
func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		category.Name,
		nullableString(category.Description),
		formatTime(category.UpdatedAt),
		category.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// DeleteCategory removes a category.
// Returns store.ErrConflict while any book still references it.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// CategoryExists reports whether a category with the given ID exists.
func (s *Store) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`, id)
}

// CountCategoryBooks returns the number of books in a category across all users.
func (s *Store) CountCategoryBooks(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE category_id = ?`, id).Scan(&n)
	return n, err
}
