package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a single rating left by a verified buyer.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:reviews_user_book_key" json:"user_id"`
	BookID    uuid.UUID `gorm:"column:book_id;type:uuid;not null;uniqueIndex:reviews_user_book_key" json:"book_id"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Comment   *string   `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
