package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// ShippingInfo is the delivery data supplied at checkout.
type ShippingInfo struct {
	Address string
	City    string
	Zip     string
	Phone   string
}

func (s ShippingInfo) validate() error {
	missing := []string{}
	if strings.TrimSpace(s.Address) == "" {
		missing = append(missing, "shipping_address")
	}
	if strings.TrimSpace(s.City) == "" {
		missing = append(missing, "shipping_city")
	}
	if strings.TrimSpace(s.Zip) == "" {
		missing = append(missing, "shipping_zip")
	}
	if strings.TrimSpace(s.Phone) == "" {
		missing = append(missing, "shipping_phone")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping information incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// Actor identifies who performs an order action.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// AdminFilters narrows the admin order listing.
type AdminFilters struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
}

// OrderList is one page of orders, newest first.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
