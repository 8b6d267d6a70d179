package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

func TestWishlistLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	books, err := catalog.NewService(catalog.NewRepository(conn), config.CatalogConfig{CategoryCacheSize: 1, CategoryCacheTTL: time.Minute})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), books)
	require.NoError(t, err)

	ctx := context.Background()
	user := dbtest.MustCreateUser(t, conn, enums.UserRoleCustomer)
	first := dbtest.MustCreateBook(t, conn, "Dune", "12.50", 3)
	second := dbtest.MustCreateBook(t, conn, "Emma", "8.00", 0)

	require.NoError(t, svc.Add(ctx, user.ID, first.ID))
	require.NoError(t, svc.Add(ctx, user.ID, second.ID))
	require.NoError(t, conn.Model(&models.WishlistItem{}).Where("book_id = ?", first.ID).Update("created_at", dbtest.At(0)).Error)
	require.NoError(t, conn.Model(&models.WishlistItem{}).Where("book_id = ?", second.ID).Update("created_at", dbtest.At(1)).Error)

	err = svc.Add(ctx, user.ID, first.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	err = svc.Add(ctx, user.ID, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	page, err := svc.List(ctx, user.ID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Emma", page.Items[0].Book.Title)
	require.NotEmpty(t, page.NextCursor)

	// Live data: the current price shows, not the price at save time.
	require.NoError(t, conn.Model(&models.Book{}).Where("id = ?", first.ID).Update("price", "14.00").Error)
	next, err := svc.List(ctx, user.ID, pagination.Params{Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "14.00", next.Items[0].Book.Price.String())
	assert.Empty(t, next.NextCursor)

	require.NoError(t, svc.Remove(ctx, user.ID, first.ID))
	err = svc.Remove(ctx, user.ID, first.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestWishlistRejectsBadCursor(t *testing.T) {
	conn := dbtest.Open(t)
	books, err := catalog.NewService(catalog.NewRepository(conn), config.CatalogConfig{CategoryCacheSize: 1, CategoryCacheTTL: time.Minute})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), books)
	require.NoError(t, err)

	_, err = svc.List(context.Background(), uuid.New(), pagination.Params{Cursor: "%%%"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
