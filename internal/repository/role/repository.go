package role

import (
	"context"

	"shopcore/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Role, error)
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Create(ctx context.Context, r domain.Role) (*domain.Role, error)
	Update(ctx context.Context, r domain.Role) (*domain.Role, error)
	Delete(ctx context.Context, id string) error
}
