package domain

import "time"

const (
	CartStateActive    = "active"
	CartStateOrdered   = "ordered"
	CartStateAbandoned = "abandoned"
)

type Cart struct {
	ID         string     `json:"id"`
	Token      string     `json:"-"`
	CustomerID *string    `json:"customerId,omitempty"`
	Currency   string     `json:"currency"`
	State      string     `json:"state"`
	Lines      []CartLine `json:"lineItems"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// CartLine snapshots the product at the time it was added; catalog edits do
// not rewrite existing lines.
type CartLine struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	ProductID      string    `json:"productId"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Subtotal sums line totals.
func (c Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.TotalCents
	}
	return total
}

// TotalQuantity sums line quantities.
func (c Cart) TotalQuantity() int {
	var qty int
	for _, l := range c.Lines {
		qty += l.Quantity
	}
	return qty
}
