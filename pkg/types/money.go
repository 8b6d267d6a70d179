package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const moneyScale = 2

// CatalogPrice is the live price of a book. It is read fresh every time and
// may change between a cart read and checkout.
type CatalogPrice struct {
	decimal.Decimal
}

// NewCatalogPrice builds a CatalogPrice from a decimal string such as "12.50".
func NewCatalogPrice(value string) (CatalogPrice, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return CatalogPrice{}, fmt.Errorf("parse price %q: %w", value, err)
	}
	if d.IsNegative() {
		return CatalogPrice{}, fmt.Errorf("price %q must not be negative", value)
	}
	return CatalogPrice{Decimal: d.Round(moneyScale)}, nil
}

// MustCatalogPrice is NewCatalogPrice for literals known to be valid.
func MustCatalogPrice(value string) CatalogPrice {
	p, err := NewCatalogPrice(value)
	if err != nil {
		panic(err)
	}
	return p
}

// Freeze snapshots the live price into an order line.
func (p CatalogPrice) Freeze() FrozenUnitPrice {
	return FrozenUnitPrice{amount: p.Decimal.Round(moneyScale)}
}

// Times returns price × qty at the live price.
func (p CatalogPrice) Times(qty int) decimal.Decimal {
	return p.Decimal.Mul(decimal.NewFromInt(int64(qty))).Round(moneyScale)
}

func (p CatalogPrice) String() string {
	return p.Decimal.StringFixed(moneyScale)
}

func (p CatalogPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *CatalogPrice) UnmarshalJSON(data []byte) error {
	d, err := unmarshalAmount(data)
	if err != nil {
		return err
	}
	p.Decimal = d
	return nil
}

func (p CatalogPrice) Value() (driver.Value, error) {
	return p.Decimal.StringFixed(moneyScale), nil
}

func (p *CatalogPrice) Scan(src any) error {
	return p.Decimal.Scan(src)
}

// FrozenUnitPrice is a price copied into an order item at creation. It has no
// exported constructor from a raw number so it can only originate from
// CatalogPrice.Freeze or from the database.
type FrozenUnitPrice struct {
	amount decimal.Decimal
}

// Amount returns the frozen decimal.
func (f FrozenUnitPrice) Amount() decimal.Decimal {
	return f.amount
}

// LineTotal returns unit × qty.
func (f FrozenUnitPrice) LineTotal(qty int) decimal.Decimal {
	return f.amount.Mul(decimal.NewFromInt(int64(qty))).Round(moneyScale)
}

func (f FrozenUnitPrice) String() string {
	return f.amount.StringFixed(moneyScale)
}

func (f FrozenUnitPrice) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *FrozenUnitPrice) UnmarshalJSON(data []byte) error {
	d, err := unmarshalAmount(data)
	if err != nil {
		return err
	}
	f.amount = d
	return nil
}

func (f FrozenUnitPrice) Value() (driver.Value, error) {
	return f.amount.StringFixed(moneyScale), nil
}

func (f *FrozenUnitPrice) Scan(src any) error {
	return f.amount.Scan(src)
}

// Money is a computed total such as an order total or a line subtotal.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a computed decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(moneyScale)}
}

// SumMoney adds the provided amounts.
func SumMoney(amounts ...decimal.Decimal) Money {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return NewMoney(total)
}

func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	d, err := unmarshalAmount(data)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Decimal.StringFixed(moneyScale), nil
}

func (m *Money) Scan(src any) error {
	return m.Decimal.Scan(src)
}

func unmarshalAmount(data []byte) (decimal.Decimal, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var number json.Number
		if numErr := json.Unmarshal(data, &number); numErr != nil {
			return decimal.Decimal{}, fmt.Errorf("amount must be a string or number: %w", err)
		}
		raw = number.String()
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d.Round(moneyScale), nil
}
