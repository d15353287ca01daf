package segment

import (
	"context"

	"shopcore/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Segment, error)
	GetByID(ctx context.Context, id string) (*domain.Segment, error)
	Create(ctx context.Context, s domain.Segment) (*domain.Segment, error)
	Update(ctx context.Context, s domain.Segment) (*domain.Segment, error)
	Delete(ctx context.Context, id string) error
	MemberIDs(ctx context.Context, id string) ([]string, error)
	ReplaceMembers(ctx context.Context, id string, customerIDs []string) error
	AddMember(ctx context.Context, id, customerID string) error
	RemoveMember(ctx context.Context, id, customerID string) error
	RemoveCustomer(ctx context.Context, customerID string) error
}
