package order

import (
	"context"

	"shopcore/internal/domain"
)

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status        string
	PaymentStatus string
	Email         string
	Limit         int
	Offset        int
}

type Repository interface {
	// Create inserts the order and its items and decrements product stock,
	// all in one transaction. Returns domain.ErrInsufficientStock when any
	// item asks for more units than remain.
	Create(ctx context.Context, o domain.Order, numberPrefix string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, ref string) (*domain.Order, error)
}
