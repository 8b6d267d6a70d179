package payloads

import (
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderLine is a compact view of an order item inside an event.
type OrderLine struct {
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

// OrderCreatedEvent is emitted once checkout commits.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	TotalPrice string      `json:"total_price"`
	Items      []OrderLine `json:"items"`
}

// OrderStatusChangedEvent covers confirm and admin status moves.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted for user cancels, admin cancels and expiry.
type OrderCancelledEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	UserID    uuid.UUID         `json:"user_id"`
	From      enums.OrderStatus `json:"from"`
	Reason    string            `json:"reason"`
	Restocked bool              `json:"restocked"`
}

// OrderRefundedEvent is emitted by the admin refund action.
type OrderRefundedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	From       enums.OrderStatus `json:"from"`
	TotalPrice string            `json:"total_price"`
	Restocked  bool              `json:"restocked"`
}

// Cancellation reasons carried by OrderCancelledEvent.
const (
	CancelReasonCustomer = "customer"
	CancelReasonAdmin    = "admin"
	CancelReasonExpired  = "expired"
)
