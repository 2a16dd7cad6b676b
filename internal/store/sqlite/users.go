package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, name, email, password, created_at, updated_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.CreatedAt, u.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user and sets its ID.
// Returns store.ErrAlreadyExists if the email is taken (case-insensitively).
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	user.Email = strings.TrimSpace(user.Email)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	user.ID, err = res.LastInsertId()
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email. Matching ignores case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email))

	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

// UserExists reports whether a user with the given ID exists.
func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id)
}

// UpdateUserPassword replaces a user's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatTime(time.Now()), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
