package cart

import "github.com/google/uuid"

// Quantity bounds are checked by the cart service.
type addItemRequest struct {
	BookID   uuid.UUID `json:"book_id" validate:"required"`
	Quantity int       `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}
