package staff

import (
	"context"

	"shopcore/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, u domain.StaffUser) (*domain.StaffUser, error)
	GetByID(ctx context.Context, id string) (*domain.StaffUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	List(ctx context.Context) ([]domain.StaffUser, error)
	Update(ctx context.Context, u domain.StaffUser) (*domain.StaffUser, error)
	Delete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}
