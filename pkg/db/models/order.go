package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// Order is the immutable record produced by checkout. TotalPrice always equals
// the sum of its item subtotals.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null" json:"status"`
	TotalPrice      types.Money       `gorm:"column:total_price;type:numeric(12,2);not null" json:"total_price"`
	ShippingAddress string            `gorm:"column:shipping_address;not null" json:"shipping_address"`
	ShippingCity    string            `gorm:"column:shipping_city;not null" json:"shipping_city"`
	ShippingZip     string            `gorm:"column:shipping_zip;not null" json:"shipping_zip"`
	ShippingPhone   string            `gorm:"column:shipping_phone;not null" json:"shipping_phone"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CancelledAt     *time.Time        `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	RefundedAt      *time.Time        `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OrderItem snapshots a cart line at purchase time.
type OrderItem struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID             `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	BookID    uuid.UUID             `gorm:"column:book_id;type:uuid;not null" json:"book_id"`
	Title     string                `gorm:"column:title;not null" json:"title"`
	Quantity  int                   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice types.FrozenUnitPrice `gorm:"column:unit_price;type:numeric(10,2);not null" json:"unit_price"`
	Subtotal  types.Money           `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
