package sqlite

import (
	"context"
	"fmt"

	"github.com/listenupapp/bookstore-server/internal/domain"
)

// transactionColumns must match the scan order in scanTransaction.
const transactionColumns = `id, user_id, book_id, transaction_type, amount, status, created_at, updated_at`

// scanTransaction scans a transaction row. Amounts are stored as canonical
// two-decimal strings and parsed back without passing through float64.
func scanTransaction(scanner rowScanner) (*domain.Transaction, error) {
	var (
		t         domain.Transaction
		amount    string
		status    string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(&t.ID, &t.UserID, &t.BookID, &t.Type, &amount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Amount, err = domain.ParseAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount of transaction %d: %w", t.ID, err)
	}
	t.Status = domain.TransactionStatus(status)

	t.CreatedAt, t.UpdatedAt, err = parseTimestamps(createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTransaction inserts a transaction and sets its ID.
// Returns store.ErrConflict if the user or book does not exist.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			user_id, book_id, transaction_type, amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID,
		tx.BookID,
		tx.Type,
		tx.Amount.String(),
		string(tx.Status),
		formatTime(tx.CreatedAt),
		formatTime(tx.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}

	tx.ID, err = res.LastInsertId()
	return err
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(err)
	}
	return t, nil
}

// ListTransactions returns every transaction ordered by ID.
func (s *Store) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// UpdateTransaction rewrites type, amount and status of an existing transaction.
func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET transaction_type = ?, amount = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		tx.Type,
		tx.Amount.String(),
		string(tx.Status),
		formatTime(tx.UpdatedAt),
		tx.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
