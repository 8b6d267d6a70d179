package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// BookSummary is the live catalog view of a saved book.
type BookSummary struct {
	ID       uuid.UUID          `json:"id"`
	Title    string             `json:"title"`
	Author   string             `json:"author"`
	Price    types.CatalogPrice `json:"price"`
	Stock    int                `json:"stock"`
	IsActive bool               `json:"is_active"`
}

// ItemDTO wraps the book summary included in a wishlist row.
type ItemDTO struct {
	Book    BookSummary `json:"book"`
	AddedAt time.Time   `json:"added_at"`
}

// ItemsPageDTO returns a cursor-paginated wishlist view.
type ItemsPageDTO struct {
	Items      []ItemDTO `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func toDTO(item models.WishlistItem) ItemDTO {
	dto := ItemDTO{AddedAt: item.CreatedAt}
	if item.Book != nil {
		dto.Book = BookSummary{
			ID:       item.Book.ID,
			Title:    item.Book.Title,
			Author:   item.Book.Author,
			Price:    item.Book.Price,
			Stock:    item.Book.Stock,
			IsActive: item.Book.IsActive,
		}
	}
	return dto
}
