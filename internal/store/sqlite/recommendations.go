package sqlite

import (
	"context"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// recommendationColumns must match the scan order in scanRecommendation.
const recommendationColumns = `id, user_id, book_id, recommendation_message, created_at, updated_at`

func scanRecommendation(scanner rowScanner) (*domain.Recommendation, error) {
	var (
		r         domain.Recommendation
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&r.ID, &r.UserID, &r.BookID, &r.Message, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, r.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecommendation inserts a recommendation and sets its ID.
// Returns store.ErrConflict if the user or book does not exist.
func (s *Store) CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendations (user_id, book_id, recommendation_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.UserID,
		rec.BookID,
		rec.Message,
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	rec.ID, err = res.LastInsertId()
	return err
}

// GetRecommendation retrieves a recommendation by ID.
func (s *Store) GetRecommendation(ctx context.Context, id int64) (*domain.Recommendation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE id = ?`, id)

	r, err := scanRecommendation(row)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// ListRecommendations returns every recommendation ordered by ID.
func (s *Store) ListRecommendations(ctx context.Context) ([]*domain.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := make([]*domain.Recommendation, 0)
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateRecommendation rewrites the message of an existing recommendation.
func (s *Store) UpdateRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recommendations SET recommendation_message = ?, updated_at = ?
		WHERE id = ?`,
		rec.Message,
		formatTime(rec.UpdatedAt),
		rec.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// DeleteRecommendation removes a recommendation.
func (s *Store) DeleteRecommendation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recommendations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
