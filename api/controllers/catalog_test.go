package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/internal/reviews"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type testCatalogService struct {
	catalog.Service
	searchFn     func(ctx context.Context, input catalog.SearchInput) (*catalog.BookList, error)
	findFn       func(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
	createBookFn func(ctx context.Context, input catalog.CreateBookInput) (*models.Book, error)
}

func (s *testCatalogService) Search(ctx context.Context, input catalog.SearchInput, _ pagination.Params) (*catalog.BookList, error) {
	return s.searchFn(ctx, input)
}

func (s *testCatalogService) FindByID(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	return s.findFn(ctx, bookID)
}

func (s *testCatalogService) CreateBook(ctx context.Context, input catalog.CreateBookInput) (*models.Book, error) {
	return s.createBookFn(ctx, input)
}

type testRatings struct {
	summary reviews.RatingSummary
}

func (r testRatings) Summary(context.Context, uuid.UUID) (reviews.RatingSummary, error) {
	return r.summary, nil
}

func TestListBooksParsesFilters(t *testing.T) {
	categoryID := uuid.New()
	var got catalog.SearchInput
	svc := &testCatalogService{
		searchFn: func(ctx context.Context, input catalog.SearchInput) (*catalog.BookList, error) {
			got = input
			return &catalog.BookList{}, nil
		},
	}

	url := "/api/v1/books?q=%20dune%20&category_id=" + categoryID.String() + "&min_price=5&max_price=20.50"
	resp := httptest.NewRecorder()
	ListBooks(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "dune", got.Query)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, categoryID, *got.CategoryID)
	require.NotNil(t, got.MinPrice)
	require.NotNil(t, got.MaxPrice)
	assert.True(t, got.MinPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, got.MaxPrice.Equal(decimal.RequireFromString("20.50")))
}

func TestListBooksRejectsInvertedPriceRange(t *testing.T) {
	svc := &testCatalogService{
		searchFn: func(context.Context, catalog.SearchInput) (*catalog.BookList, error) {
			t.Fatal("search must not run")
			return nil, nil
		},
	}

	resp := httptest.NewRecorder()
	ListBooks(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/books?min_price=30&max_price=10", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	ListBooks(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/books?min_price=-1", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetBookHidesInactiveBooks(t *testing.T) {
	bookID := uuid.New()
	svc := &testCatalogService{
		findFn: func(context.Context, uuid.UUID) (*models.Book, error) {
			return &models.Book{ID: bookID, Title: "Retired", IsActive: false}, nil
		},
	}

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID.String(), nil), "bookId", bookID.String())
	resp := httptest.NewRecorder()
	GetBook(svc, nil, testLogger())(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetBookIncludesRating(t *testing.T) {
	bookID := uuid.New()
	svc := &testCatalogService{
		findFn: func(context.Context, uuid.UUID) (*models.Book, error) {
			return &models.Book{ID: bookID, Title: "Dune", IsActive: true, Price: types.MustCatalogPrice("9.99")}, nil
		},
	}
	ratings := testRatings{summary: reviews.RatingSummary{Average: decimal.RequireFromString("4.5"), Count: 2}}

	req := addRouteParam(httptest.NewRequest(http.MethodGet, "/api/v1/books/"+bookID.String(), nil), "bookId", bookID.String())
	resp := httptest.NewRecorder()
	GetBook(svc, ratings, testLogger())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data struct {
			Title  string `json:"title"`
			Price  string `json:"price"`
			Rating struct {
				Count int64 `json:"count"`
			} `json:"rating"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Dune", envelope.Data.Title)
	assert.Equal(t, "9.99", envelope.Data.Price)
	assert.EqualValues(t, 2, envelope.Data.Rating.Count)
}

func TestAdminCreateBookDefaultsToActive(t *testing.T) {
	var got catalog.CreateBookInput
	svc := &testCatalogService{
		createBookFn: func(ctx context.Context, input catalog.CreateBookInput) (*models.Book, error) {
			got = input
			return &models.Book{ID: uuid.New(), Title: input.Title, Price: input.Price, IsActive: input.IsActive}, nil
		},
	}

	body := `{"title":"Dune","author":"Frank Herbert","isbn":"9780441172719","price":"12.5","stock":3}`
	resp := httptest.NewRecorder()
	AdminCreateBook(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/books", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.True(t, got.IsActive)
	assert.Equal(t, 3, got.Stock)
	assert.Equal(t, "12.50", got.Price.String())
}

func TestAdminCreateBookValidatesBody(t *testing.T) {
	svc := &testCatalogService{
		createBookFn: func(context.Context, catalog.CreateBookInput) (*models.Book, error) {
			t.Fatal("create must not run")
			return nil, nil
		},
	}

	body := `{"title":"","author":"x","isbn":"123","price":"1.00","stock":-1}`
	resp := httptest.NewRecorder()
	AdminCreateBook(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/books", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
