package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// CartView is the read model of a cart, priced from the live catalog.
type CartView struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Items     []LineView  `json:"items"`
	ItemCount int         `json:"item_count"`
	Subtotal  types.Money `json:"subtotal"`
}

// LineView is one cart line. UnitPrice is the current catalog price, not a
// snapshot.
type LineView struct {
	BookID    uuid.UUID          `json:"book_id"`
	Title     string             `json:"title"`
	Author    string             `json:"author"`
	Quantity  int                `json:"quantity"`
	UnitPrice types.CatalogPrice `json:"unit_price"`
	LineTotal types.Money        `json:"line_total"`
	Available bool               `json:"available"`
}

func buildView(cart *models.Cart) *CartView {
	view := &CartView{ID: cart.ID, UserID: cart.UserID, Items: []LineView{}}
	totals := make([]decimal.Decimal, 0, len(cart.Items))
	for _, item := range cart.Items {
		line := LineView{BookID: item.BookID, Quantity: item.Quantity}
		if item.Book != nil {
			line.Title = item.Book.Title
			line.Author = item.Book.Author
			line.UnitPrice = item.Book.Price
			line.Available = item.Book.IsActive && item.Book.Stock >= item.Quantity
		}
		total := line.UnitPrice.Times(item.Quantity)
		line.LineTotal = types.NewMoney(total)
		totals = append(totals, total)
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, line)
	}
	view.Subtotal = types.SumMoney(totals...)
	return view
}
