package product

import (
	"context"

	"shopcore/internal/domain"
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Query           string
	CategoryID      string
	IncludeInactive bool
	Limit           int
	Offset          int
}

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	SetImages(ctx context.Context, id string, images []string) error
	Delete(ctx context.Context, id string) error
}
