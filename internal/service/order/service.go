package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"shopcore/internal/domain"
	"shopcore/internal/mailer"
	"shopcore/internal/payment"
	orderrepo "shopcore/internal/repository/order"
)

// ErrInvalidTransition rejects status changes outside the lifecycle graphs.
var ErrInvalidTransition = errors.New("invalid transition")

type repo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, ref string) (*domain.Order, error)
}

// Service drives the order lifecycle after checkout.
type Service struct {
	repo     repo
	provider payment.Provider
	mail     mailer.Mailer
	logger   *log.Logger
}

func New(repo repo, provider payment.Provider, mail mailer.Mailer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, provider: provider, mail: mail, logger: logger}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForCustomer loads an order only when it belongs to the customer.
func (s *Service) GetForCustomer(ctx context.Context, id, customerID string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID == nil || *o.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *Service) List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// ChangeStatus moves an order along the fulfilment graph. Moving past
// confirmed requires the order to be paid. Shipped and delivered notify the
// customer by email, best-effort.
func (s *Service) ChangeStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	if requiresPayment(next) && o.PaymentStatus != domain.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: %s requires a paid order (payment is %s)", ErrInvalidTransition, next, o.PaymentStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if next == domain.OrderStatusShipped || next == domain.OrderStatusDelivered {
		if err := s.mail.SendOrderStatusUpdate(ctx, *updated); err != nil {
			s.logger.Printf("order: status email for %s: %v", updated.Number, err)
		}
	}
	return updated, nil
}

// Capture settles payment through the provider and marks the order paid.
func (s *Service) Capture(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.PaymentStatus.CanTransitionTo(domain.PaymentStatusPaid) {
		return nil, fmt.Errorf("%w: payment %s -> paid", ErrInvalidTransition, o.PaymentStatus)
	}
	ref, err := s.provider.Capture(ctx, *o)
	if err != nil {
		if failed, updErr := s.repo.UpdatePayment(ctx, id, domain.PaymentStatusFailed, ""); updErr == nil {
			return failed, nil
		}
		return nil, err
	}
	return s.repo.UpdatePayment(ctx, id, domain.PaymentStatusPaid, ref)
}

// Refund reverses a paid order through the provider.
func (s *Service) Refund(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.PaymentStatus.CanTransitionTo(domain.PaymentStatusRefunded) {
		return nil, fmt.Errorf("%w: payment %s -> refunded", ErrInvalidTransition, o.PaymentStatus)
	}
	if err := s.provider.Refund(ctx, *o); err != nil {
		return nil, fmt.Errorf("refund %s: %w", o.Number, err)
	}
	return s.repo.UpdatePayment(ctx, id, domain.PaymentStatusRefunded, "")
}

func requiresPayment(next domain.OrderStatus) bool {
	switch next {
	case domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered:
		return true
	default:
		return false
	}
}
