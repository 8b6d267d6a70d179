package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

const (
	minRating = 1
	maxRating = 5
)

// CreateReviewInput is the body of a new review.
type CreateReviewInput struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// RatingSummary is the aggregate shown next to a book.
type RatingSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int64           `json:"count"`
}

// ReviewList is a page of reviews plus the book's rating summary.
type ReviewList struct {
	Reviews    []models.Review `json:"reviews"`
	Summary    RatingSummary   `json:"summary"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type bookLoader interface {
	FindByID(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
}

type purchaseChecker interface {
	HasDeliveredPurchase(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
}

type Service interface {
	CreateReview(ctx context.Context, userID, bookID uuid.UUID, input CreateReviewInput) (*models.Review, error)
	ListForBook(ctx context.Context, bookID uuid.UUID, params pagination.Params) (*ReviewList, error)
	DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) error
	Summary(ctx context.Context, bookID uuid.UUID) (RatingSummary, error)
}

type service struct {
	repo      *Repository
	books     bookLoader
	purchases purchaseChecker
}

func NewService(repo *Repository, books bookLoader, purchases purchaseChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase checker required")
	}
	return &service{repo: repo, books: books, purchases: purchases}, nil
}

// CreateReview records a rating from a user who has received the book.
func (s *service) CreateReview(ctx context.Context, userID, bookID uuid.UUID, input CreateReviewInput) (*models.Review, error) {
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	ok, err := s.purchases.HasDeliveredPurchase(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers with a delivered order can review this book")
	}

	var comment *string
	if input.Comment != nil {
		if trimmed := strings.TrimSpace(*input.Comment); trimmed != "" {
			comment = &trimmed
		}
	}

	review, err := s.repo.Create(ctx, &models.Review{
		UserID:  userID,
		BookID:  bookID,
		Rating:  input.Rating,
		Comment: comment,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "book already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create review")
	}
	return review, nil
}

func (s *service) ListForBook(ctx context.Context, bookID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListForBook(ctx, bookID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reviews")
	}
	summary, err := s.Summary(ctx, bookID)
	if err != nil {
		return nil, err
	}

	page, next := pagination.Page(rows, params.Limit, func(r models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	return &ReviewList{Reviews: page, Summary: summary, NextCursor: next}, nil
}

// DeleteReview removes a review owned by userID. Admins may remove any review.
func (s *service) DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isAdmin bool) error {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load review")
	}
	if !isAdmin && review.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete review")
	}
	return nil
}

func (s *service) Summary(ctx context.Context, bookID uuid.UUID) (RatingSummary, error) {
	row, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return RatingSummary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: summarize reviews")
	}
	return RatingSummary{
		Average: decimal.NewFromFloat(row.Average).Round(2),
		Count:   row.Count,
	}, nil
}
