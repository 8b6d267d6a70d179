package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// BookFilter narrows ListBooks. Zero values match everything.
type BookFilter struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// SearchInput is the public book search request.
type SearchInput struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

// BookList is one page of books.
type BookList struct {
	Books      []models.Book `json:"books"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type CreateBookInput struct {
	Title       string
	Author      string
	ISBN        string
	Description *string
	Price       types.CatalogPrice
	Stock       int
	IsActive    bool
	CategoryID  *uuid.UUID
}

// UpdateBookInput carries optional changes; nil fields are left untouched.
type UpdateBookInput struct {
	Title       *string
	Author      *string
	ISBN        *string
	Description *string
	Price       *types.CatalogPrice
	Stock       *int
	IsActive    *bool
	CategoryID  *uuid.UUID
}

type CreateCategoryInput struct {
	Name        string
	Slug        string
	Description *string
}
