package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

type bookLoader interface {
	FindByID(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ItemsPageDTO, error)
	Add(ctx context.Context, userID, bookID uuid.UUID) error
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
}

type service struct {
	repo  *Repository
	books bookLoader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo *Repository, books bookLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader is required")
	}
	return &service{repo: repo, books: books}, nil
}

// List returns the user's saved books, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ItemsPageDTO, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListItems(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list wishlist")
	}
	page, next := pagination.Page(rows, params.Limit, func(item models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	})

	items := make([]ItemDTO, 0, len(page))
	for _, row := range page {
		items = append(items, toDTO(row))
	}
	return &ItemsPageDTO{Items: items, NextCursor: next}, nil
}

// Add ensures the book exists and saves it for the user.
func (s *service) Add(ctx context.Context, userID, bookID uuid.UUID) error {
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return err
	}
	if _, err := s.repo.AddItem(ctx, userID, bookID); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "book already in wishlist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	affected, err := s.repo.RemoveItem(ctx, userID, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: remove wishlist item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}
