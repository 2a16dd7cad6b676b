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

// MsgRecommendationNotFound is returned for unknown recommendation IDs.
const MsgRecommendationNotFound = "Recommendation not found"

var recommendationFieldOrder = []string{"user_id", "book_id", "recommendation_message"}

// RecommendationService manages recommendations.
//
// Recommendations are not scoped to their author: any authenticated caller
// may read or change any of them, and user_id is taken from the request.
type RecommendationService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(store store.Store, validator *validation.Validator, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		store:     store,
		validator: orNewValidator(validator),
		logger:    orDiscard(logger),
	}
}

// CreateRecommendationRequest is the input of Create.
type CreateRecommendationRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	BookID  string `json:"book_id" validate:"required"`
	Message string `json:"recommendation_message" validate:"required"`
}

// UpdateRecommendationRequest is the input of Update.
type UpdateRecommendationRequest struct {
	Message string `json:"recommendation_message" validate:"required"`
}

// List returns every recommendation.
func (s *RecommendationService) List(ctx context.Context) ([]*domain.Recommendation, error) {
	recs, err := s.store.ListRecommendations(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list recommendations")
	}
	return recs, nil
}

// Get returns a recommendation by ID.
func (s *RecommendationService) Get(ctx context.Context, id int64) (*domain.Recommendation, error) {
	rec, err := s.store.GetRecommendation(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, MsgRecommendationNotFound, "get recommendation")
	}
	return rec, nil
}

// Create inserts a recommendation linking an existing user to an existing book.
func (s *RecommendationService) Create(ctx context.Context, req CreateRecommendationRequest) (*domain.Recommendation, error) {
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
	if err := validationFailed(fields, recommendationFieldOrder...); err != nil {
		return nil, err
	}

	rec := &domain.Recommendation{
		UserID:  userID,
		BookID:  bookID,
		Message: req.Message,
	}
	rec.InitTimestamps()

	if err := s.store.CreateRecommendation(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, danglingReference()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create recommendation")
	}
	return rec, nil
}

// Update replaces the message of a recommendation.
func (s *RecommendationService) Update(ctx context.Context, id int64, req UpdateRecommendationRequest) (*domain.Recommendation, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := check(s.validator, req)
	if err != nil {
		return nil, err
	}
	if err := validationFailed(fields, recommendationFieldOrder...); err != nil {
		return nil, err
	}

	rec.Message = req.Message
	rec.Touch()

	if err := s.store.UpdateRecommendation(ctx, rec); err != nil {
		return nil, notFoundOr(err, MsgRecommendationNotFound, "update recommendation")
	}
	return rec, nil
}

// Delete removes a recommendation.
func (s *RecommendationService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecommendation(ctx, id); err != nil {
		return notFoundOr(err, MsgRecommendationNotFound, "delete recommendation")
	}
	return nil
}

// danglingReference reports a user or book deleted between validation and insert.
func danglingReference() error {
	var fields domainerrors.FieldErrors
	fields.Add("book_id", "The selected book id is invalid.")
	return validationFailed(fields)
}
