package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry. A duplicate surfaces as a unique violation.
func (r *Repository) AddItem(ctx context.Context, userID, bookID uuid.UUID) (*models.WishlistItem, error) {
	item := &models.WishlistItem{ID: uuid.New(), UserID: userID, BookID: bookID}
	if err := r.db.WithContext(ctx).Omit("Book").Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes the user-book entry and reports how many rows went.
func (r *Repository) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.WishlistItem{})
	return result.RowsAffected, result.Error
}

// ListItems returns the newest wishlist rows for a user with their books
// preloaded. It fetches one extra row to detect the next page.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.WishlistItem, error) {
	query := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WishlistItem
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	return rows, err
}
