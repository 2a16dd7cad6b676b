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

// MsgTransactionNotFound is returned for unknown transaction IDs.
const MsgTransactionNotFound = "Transaction not found"

var transactionFieldOrder = []string{"user_id", "book_id", "transaction_type", "amount", "status"}

// TransactionService manages transactions.
//
// Like recommendations, transactions are visible to and writable by any
// authenticated caller.
type TransactionService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store store.Store, validator *validation.Validator, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		validator: orNewValidator(validator),
		logger:    orDiscard(logger),
	}
}

// CreateTransactionRequest is the input of Create.
// Amount is the decimal text as received, from a JSON number or a string.
type CreateTransactionRequest struct {
	UserID string `json:"user_id" validate:"required"`
	BookID string `json:"book_id" validate:"required"`
	TransactionDetails
}

// UpdateTransactionRequest is the input of Update.
type UpdateTransactionRequest struct {
	TransactionDetails
}

// TransactionDetails are the mutable fields of a transaction.
type TransactionDetails struct {
	Type   string `json:"transaction_type" validate:"required"`
	Amount string `json:"amount" validate:"required"`
	Status string `json:"status" validate:"required,oneof=pending completed failed"`
}

// List returns every transaction.
func (s *TransactionService) List(ctx context.Context) ([]*domain.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list transactions")
	}
	return txs, nil
}

// Get returns a transaction by ID.
func (s *TransactionService) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MsgTransactionNotFound, "get transaction")
	}
	return tx, nil
}

// Create inserts a transaction for an existing user and book.
func (s *TransactionService) Create(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error) {
	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}

	userID, err := referenceExists(ctx, &fields, "user_id", req.UserID, s.store.UserExists)
	if err != nil {
		return nil, err
	}
	bookID, err := referenceExists(ctx, &fields, "book_id", req.BookID, s.store.BookExists)
	if err != nil {
		return nil, err
	}
	amount := parseAmount(&fields, req.Amount)

	if err := validationFailed(fields, transactionFieldOrder...); err != nil {
		return nil, err
	}

	tx := &domain.Transaction{
		UserID: userID,
		BookID: bookID,
		Type:   req.Type,
		Amount: amount,
		Status: domain.TransactionStatus(req.Status),
	}
	tx.InitTimestamps()

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, danglingReference()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create transaction")
	}
	return tx, nil
}

// Update replaces type, amount and status of a transaction.
func (s *TransactionService) Update(ctx context.Context, id int64, req UpdateTransactionRequest) (*domain.Transaction, error) {
	tx, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}
	amount := parseAmount(&fields, req.Amount)
	if err := validationFailed(fields, transactionFieldOrder...); err != nil {
		return nil, err
	}

	tx.Type = req.Type
	tx.Amount = amount
	tx.Status = domain.TransactionStatus(req.Status)
	tx.Touch()

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, notFoundOr(err, MsgTransactionNotFound, "update transaction")
	}
	return tx, nil
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return notFoundOr(err, MsgTransactionNotFound, "delete transaction")
	}
	return nil
}

// parseAmount converts a present amount to fixed point and enforces the
// column's magnitude limit.
func parseAmount(fields *domainerrors.FieldErrors, raw string) domain.Amount {
	if fields.Has("amount") {
		return domain.Amount{}
	}
	amount, err := domain.ParseAmount(raw)
	switch {
	case errors.Is(err, domain.ErrAmountOutOfRange):
	case err != nil:
		fields.Add("amount", "The amount field must be a number.")
		return domain.Amount{}
	case !amount.ExceedsMax():
		return amount
	}
	limit := domain.MaxAmount.StringFixed(domain.AmountScale)
	fields.Add("amount", "The amount field must be between -"+limit+" and "+limit+".")
	return domain.Amount{}
}
