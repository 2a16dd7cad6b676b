package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// tokenColumns is the ordered list of columns selected in access token queries.
// Must match the scan order in scanToken.
const tokenColumns = `id, user_id, name, created_at, last_used_at, expires_at`

// scanToken scans a sql.Row (or sql.Rows via its Scan method) into a domain.AccessToken.
func scanToken(scanner rowScanner) (*domain.AccessToken, error) {
	var (
		t          domain.AccessToken
		createdAt  string
		lastUsedAt sql.NullString
		expiresAt  sql.NullString
	)

	err := scanner.Scan(&t.ID, &t.UserID, &t.Name, &createdAt, &lastUsedAt, &expiresAt)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.LastUsedAt, err = parseNullableTime(lastUsedAt)
	if err != nil {
		return nil, err
	}
	t.ExpiresAt, err = parseNullableTime(expiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateToken inserts a new access token row.
// Returns store.ErrConflict if the user does not exist.
func (s *Store) CreateToken(ctx context.Context, token *domain.AccessToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_tokens (id, user_id, name, created_at, last_used_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.Name,
		formatTime(token.CreatedAt),
		nullTimeString(token.LastUsedAt),
		nullTimeString(token.ExpiresAt),
	)
	return mapError(err)
}

// GetToken retrieves an access token by ID.
func (s *Store) GetToken(ctx context.Context, id string) (*domain.AccessToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM access_tokens WHERE id = ?`, id)

	t, err := scanToken(row)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// TouchToken records that a token was used at usedAt.
func (s *Store) TouchToken(ctx context.Context, id string, usedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE access_tokens SET last_used_at = ? WHERE id = ?`, formatTime(usedAt), id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// DeleteToken removes a single token. Deleting a missing token is not an error.
func (s *Store) DeleteToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE id = ?`, id)
	return mapError(err)
}

// DeleteUserTokens removes every token belonging to userID and returns how many were removed.
func (s *Store) DeleteUserTokens(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// DeleteExpiredTokens removes tokens whose expiry is at or before now.
// Timestamps are compared through julianday because RFC3339Nano strings
// do not sort lexically once fractional seconds vary in length.
func (s *Store) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM access_tokens
		WHERE expires_at IS NOT NULL AND julianday(expires_at) <= julianday(?)`,
		formatTime(now))
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
