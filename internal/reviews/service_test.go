package reviews

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
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

type stubPurchases map[uuid.UUID]bool

func (s stubPurchases) HasDeliveredPurchase(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	return s[userID], nil
}

func newTestService(t *testing.T, buyers stubPurchases) (Service, *catalogFixture) {
	t.Helper()
	conn := dbtest.Open(t)
	books, err := catalog.NewService(catalog.NewRepository(conn), config.CatalogConfig{CategoryCacheSize: 1, CategoryCacheTTL: time.Minute})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), books, buyers)
	require.NoError(t, err)
	return svc, &catalogFixture{book: dbtest.MustCreateBook(t, conn, "Middlemarch", "9.99", 4).ID}
}

type catalogFixture struct {
	book uuid.UUID
}

func ptr(s string) *string { return &s }

func TestCreateReviewRequiresDeliveredPurchase(t *testing.T) {
	buyer, stranger := uuid.New(), uuid.New()
	svc, fx := newTestService(t, stubPurchases{buyer: true})
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, stranger, fx.book, CreateReviewInput{Rating: 5})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	review, err := svc.CreateReview(ctx, buyer, fx.book, CreateReviewInput{Rating: 4, Comment: ptr("  slow start, great end  ")})
	require.NoError(t, err)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "slow start, great end", *review.Comment)

	_, err = svc.CreateReview(ctx, buyer, fx.book, CreateReviewInput{Rating: 2})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestCreateReviewValidation(t *testing.T) {
	buyer := uuid.New()
	svc, fx := newTestService(t, stubPurchases{buyer: true})
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, buyer, fx.book, CreateReviewInput{Rating: 6})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.CreateReview(ctx, buyer, uuid.New(), CreateReviewInput{Rating: 3})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListForBookIncludesSummary(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	svc, fx := newTestService(t, stubPurchases{first: true, second: true})
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, first, fx.book, CreateReviewInput{Rating: 5})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, second, fx.book, CreateReviewInput{Rating: 2})
	require.NoError(t, err)

	list, err := svc.ListForBook(ctx, fx.book, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 2)
	assert.Equal(t, int64(2), list.Summary.Count)
	assert.Equal(t, "3.5", list.Summary.Average.String())
}

func TestDeleteReviewOwnership(t *testing.T) {
	owner := uuid.New()
	svc, fx := newTestService(t, stubPurchases{owner: true})
	ctx := context.Background()
	review, err := svc.CreateReview(ctx, owner, fx.book, CreateReviewInput{Rating: 3})
	require.NoError(t, err)

	err = svc.DeleteReview(ctx, review.ID, uuid.New(), false)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	require.NoError(t, svc.DeleteReview(ctx, review.ID, uuid.New(), true))

	err = svc.DeleteReview(ctx, review.ID, owner, false)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	summary, err := svc.Summary(ctx, fx.book)
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.True(t, summary.Average.IsZero())
}
