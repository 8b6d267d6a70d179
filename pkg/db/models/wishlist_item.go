package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem links a user to a saved book.
type WishlistItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:wishlist_items_user_book_key"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:wishlist_items_user_book_key"`
	Book      *Book     `gorm:"foreignKey:BookID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
