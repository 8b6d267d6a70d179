package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), config.CatalogConfig{CategoryCacheSize: 8, CategoryCacheTTL: time.Minute})
	require.NoError(t, err)
	return svc, conn
}

func TestDecreaseStockSubtractsAndReturnsBook(t *testing.T) {
	svc, conn := newTestService(t)
	book := dbtest.MustCreateBook(t, conn, "Dune", "10.00", 5)

	updated, err := svc.DecreaseStock(context.Background(), nil, book.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, "10.00", updated.Price.String())
	assert.Equal(t, 3, dbtest.MustStock(t, conn, book.ID))
}

func TestDecreaseStockRejectsShortfall(t *testing.T) {
	svc, conn := newTestService(t)
	book := dbtest.MustCreateBook(t, conn, "Book C", "12.50", 2)

	_, err := svc.DecreaseStock(context.Background(), nil, book.ID, 3)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeBadRequest, pkgerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "insufficient stock for Book C")

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, details["requested"])
	assert.Equal(t, 2, details["available"])
	assert.Equal(t, 2, dbtest.MustStock(t, conn, book.ID))
}

func TestDecreaseStockValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DecreaseStock(context.Background(), nil, uuid.New(), 0)
	assert.Equal(t, pkgerrors.CodeBadRequest, pkgerrors.CodeOf(err))

	_, err = svc.DecreaseStock(context.Background(), nil, uuid.New(), 1)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestIncreaseStock(t *testing.T) {
	svc, conn := newTestService(t)
	book := dbtest.MustCreateBook(t, conn, "Emma", "8.00", 0)

	require.NoError(t, svc.IncreaseStock(context.Background(), nil, book.ID, 4))
	assert.Equal(t, 4, dbtest.MustStock(t, conn, book.ID))

	err := svc.IncreaseStock(context.Background(), nil, uuid.New(), 1)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestCheckStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	book := dbtest.MustCreateBook(t, conn, "Ulysses", "15.00", 3)
	hidden := dbtest.MustCreateBook(t, conn, "Hidden", "15.00", 3)
	require.NoError(t, svc.DeactivateBook(ctx, hidden.ID))

	ok, err := svc.CheckStock(ctx, book.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CheckStock(ctx, book.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckStock(ctx, hidden.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateBookDuplicateISBNConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := CreateBookInput{
		Title:    "Middlemarch",
		Author:   "George Eliot",
		ISBN:     "978-0141439549",
		Price:    types.MustCatalogPrice("9.99"),
		Stock:    10,
		IsActive: true,
	}

	created, err := svc.CreateBook(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	_, err = svc.CreateBook(ctx, input)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestUpdateBookChangesLivePrice(t *testing.T) {
	svc, conn := newTestService(t)
	book := dbtest.MustCreateBook(t, conn, "Beloved", "10.00", 1)
	price := types.MustCatalogPrice("14.25")

	updated, err := svc.UpdateBook(context.Background(), book.ID, UpdateBookInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "14.25", updated.Price.String())

	reloaded, err := svc.FindByID(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "14.25", reloaded.Price.String())
}

func TestSearchMatchesTitleAuthorAndPrice(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	dbtest.MustCreateBook(t, conn, "The Hobbit", "12.00", 1)
	dbtest.MustCreateBook(t, conn, "Hobbit Companion", "30.00", 1)
	dbtest.MustCreateBook(t, conn, "Dracula", "9.00", 1)

	result, err := svc.Search(ctx, SearchInput{Query: "hobbit"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, result.Books, 2)

	maxPrice := decimal.RequireFromString("20")
	result, err = svc.Search(ctx, SearchInput{Query: "HOBBIT", MaxPrice: &maxPrice}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "The Hobbit", result.Books[0].Title)

	minPrice := decimal.RequireFromString("50")
	_, err = svc.Search(ctx, SearchInput{MinPrice: &minPrice, MaxPrice: &maxPrice}, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestListByCategoryPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	fiction := dbtest.MustCreateCategory(t, conn, "fiction")
	for i := 0; i < 3; i++ {
		book := &models.Book{
			ID:         uuid.New(),
			Title:      "Novel",
			Author:     "Anon",
			ISBN:       uuid.NewString(),
			Price:      types.MustCatalogPrice("5.00"),
			Stock:      1,
			IsActive:   true,
			CategoryID: &fiction.ID,
			CreatedAt:  dbtest.At(i),
		}
		require.NoError(t, conn.Create(book).Error)
	}
	dbtest.MustCreateBook(t, conn, "Uncategorised", "5.00", 1)

	first, err := svc.ListByCategory(ctx, fiction.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Books, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByCategory(ctx, fiction.ID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Books, 1)
	assert.Empty(t, second.NextCursor)

	_, err = svc.ListByCategory(ctx, uuid.New(), pagination.Params{})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListCategoriesCacheIsPurgedOnCreate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Science Fiction"})
	require.NoError(t, err)

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "science-fiction", categories[0].Slug)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "Poetry"})
	require.NoError(t, err)

	categories, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "Poetry"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "science-fiction", slugify("  Science   Fiction "))
	assert.Equal(t, "c-plus-plus", slugify("C plus plus!"))
}
