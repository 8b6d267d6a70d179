package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

// Service exposes catalog reads, stock mutation and admin management.
type Service interface {
	FindByID(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
	DecreaseStock(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) (*models.Book, error)
	IncreaseStock(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) error
	CheckStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*BookList, error)
	Search(ctx context.Context, input SearchInput, params pagination.Params) (*BookList, error)
	CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, bookID uuid.UUID, input UpdateBookInput) (*models.Book, error)
	DeactivateBook(ctx context.Context, bookID uuid.UUID) error
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo  *Repository
	cache *categoryCache
}

// NewService constructs the catalog service.
func NewService(repo *Repository, cfg config.CatalogConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{
		repo:  repo,
		cache: newCategoryCache(cfg.CategoryCacheSize, cfg.CategoryCacheTTL),
	}, nil
}

func (s *service) FindByID(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	book, err := s.repo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, mapBookErr(err, "db: load book")
	}
	return book, nil
}

// DecreaseStock removes qty from the book's stock with a single conditional
// update, so concurrent checkouts can never drive stock below zero. It returns
// the book as read after the decrement.
func (s *service) DecreaseStock(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) (*models.Book, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "quantity must be positive")
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.DecrementStock(ctx, bookID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: decrement stock")
	}

	book, err := repo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, mapBookErr(err, "db: reload book")
	}
	if affected == 0 {
		return nil, insufficientStock(book, qty)
	}
	return book, nil
}

func (s *service) IncreaseStock(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "quantity must be positive")
	}
	affected, err := s.repo.WithTx(tx).IncrementStock(ctx, bookID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment stock")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return nil
}

func (s *service) CheckStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	book, err := s.repo.FindBookByID(ctx, bookID)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load book")
	}
	return book.IsActive && book.Stock >= qty, nil
}

func (s *service) ListByCategory(ctx context.Context, categoryID uuid.UUID, params pagination.Params) (*BookList, error) {
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	return s.list(ctx, BookFilter{CategoryID: &categoryID}, params)
}

func (s *service) Search(ctx context.Context, input SearchInput, params pagination.Params) (*BookList, error) {
	if input.MinPrice != nil && input.MaxPrice != nil && input.MinPrice.GreaterThan(*input.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	return s.list(ctx, BookFilter{
		Query:      input.Query,
		CategoryID: input.CategoryID,
		MinPrice:   input.MinPrice,
		MaxPrice:   input.MaxPrice,
	}, params)
}

func (s *service) list(ctx context.Context, filter BookFilter, params pagination.Params) (*BookList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListBooks(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list books")
	}
	books, next := pagination.Page(rows, params.Limit, func(b models.Book) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &BookList{Books: books, NextCursor: next}, nil
}

func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		ISBN:        strings.TrimSpace(input.ISBN),
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		IsActive:    input.IsActive,
		CategoryID:  input.CategoryID,
	}
	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this isbn already exists").
				WithDetails(map[string]any{"isbn": book.ISBN})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert book")
	}
	return created, nil
}

func (s *service) UpdateBook(ctx context.Context, bookID uuid.UUID, input UpdateBookInput) (*models.Book, error) {
	book, err := s.repo.FindBookByID(ctx, bookID)
	if err != nil {
		return nil, mapBookErr(err, "db: load book")
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.ISBN != nil {
		book.ISBN = strings.TrimSpace(*input.ISBN)
	}
	if input.Description != nil {
		book.Description = input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		book.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		book.Stock = *input.Stock
	}
	if input.IsActive != nil {
		book.IsActive = *input.IsActive
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		book.CategoryID = input.CategoryID
		book.Category = nil
	}

	updated, err := s.repo.UpdateBook(ctx, book)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a book with this isbn already exists").
				WithDetails(map[string]any{"isbn": book.ISBN})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update book")
	}
	return updated, nil
}

// DeactivateBook hides a book from browsing and new carts. Order history
// keeps referencing it.
func (s *service) DeactivateBook(ctx context.Context, bookID uuid.UUID) error {
	active := false
	_, err := s.UpdateBook(ctx, bookID, UpdateBookInput{IsActive: &active})
	return err
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*models.Category, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = slugify(input.Name)
	}
	category := &models.Category{
		Name:        strings.TrimSpace(input.Name),
		Slug:        slug,
		Description: input.Description,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists").
				WithDetails(map[string]any{"name": category.Name, "slug": category.Slug})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	s.cache.purge()
	return created, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	if cached, ok := s.cache.get(); ok {
		return cached, nil
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	s.cache.set(categories)
	return categories, nil
}

func (s *service) ensureCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.repo.FindCategoryByID(ctx, *categoryID); err != nil {
		if isNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	return nil
}

func insufficientStock(book *models.Book, requested int) error {
	return pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("insufficient stock for %s", book.Title)).
		WithDetails(map[string]any{
			"book_id":   book.ID.String(),
			"title":     book.Title,
			"requested": requested,
			"available": book.Stock,
		})
}

func mapBookErr(err error, msg string) error {
	if isNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash && b.Len() > 0:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
