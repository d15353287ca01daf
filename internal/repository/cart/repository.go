package cart

import (
	"context"

	"shopcore/internal/domain"
)

// CreateCartInput carries the fields needed to open a cart.
type CreateCartInput struct {
	Token      string
	CustomerID *string
	Currency   string
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, line domain.CartLine) error
	SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	SetState(ctx context.Context, cartID, state string) error
	AbandonByCustomer(ctx context.Context, customerID string) error
}
