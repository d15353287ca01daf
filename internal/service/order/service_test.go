package order

import (
	"context"
	"errors"
	"testing"

	"shopcore/internal/domain"
	"shopcore/internal/mailer"
	orderrepo "shopcore/internal/repository/order"
)

type stubRepo struct {
	order *domain.Order
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if r.order == nil || r.order.ID != id {
		return nil, domain.ErrNotFound
	}
	cp := *r.order
	return &cp, nil
}

func (r *stubRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	if r.order != nil && r.order.CustomerID != nil && *r.order.CustomerID == customerID {
		return []domain.Order{*r.order}, nil
	}
	return nil, nil
}

func (r *stubRepo) List(_ context.Context, _ orderrepo.ListFilter) ([]domain.Order, error) {
	if r.order == nil {
		return nil, nil
	}
	return []domain.Order{*r.order}, nil
}

func (r *stubRepo) UpdateStatus(_ context.Context, _ string, status domain.OrderStatus) (*domain.Order, error) {
	r.order.Status = status
	cp := *r.order
	return &cp, nil
}

func (r *stubRepo) UpdatePayment(_ context.Context, _ string, status domain.PaymentStatus, ref string) (*domain.Order, error) {
	r.order.PaymentStatus = status
	if ref != "" {
		r.order.PaymentRef = ref
	}
	cp := *r.order
	return &cp, nil
}

type stubProvider struct {
	ref        string
	captureErr error
	refundErr  error
	refunded   bool
}

func (p *stubProvider) Capture(_ context.Context, _ domain.Order) (string, error) {
	return p.ref, p.captureErr
}

func (p *stubProvider) Refund(_ context.Context, _ domain.Order) error {
	p.refunded = p.refundErr == nil
	return p.refundErr
}

type recordingMailer struct {
	statusUpdates int
}

func (m *recordingMailer) SendOrderConfirmation(_ context.Context, _ domain.Order) error {
	return nil
}

func (m *recordingMailer) SendOrderStatusUpdate(_ context.Context, _ domain.Order) error {
	m.statusUpdates++
	return nil
}

func testOrder(status domain.OrderStatus, pay domain.PaymentStatus) *domain.Order {
	return &domain.Order{ID: "order-1", Number: "SC-100001", Status: status, PaymentStatus: pay}
}

func TestChangeStatusFollowsGraph(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusPending, domain.PaymentStatusPaid)}
	svc := New(repo, &stubProvider{}, mailer.Noop{}, nil)

	o, err := svc.ChangeStatus(context.Background(), "order-1", domain.OrderStatusConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o.Status != domain.OrderStatusConfirmed {
		t.Fatalf("status: got %s", o.Status)
	}

	if _, err := svc.ChangeStatus(context.Background(), "order-1", domain.OrderStatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestChangeStatusRequiresPayment(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusConfirmed, domain.PaymentStatusUnpaid)}
	svc := New(repo, &stubProvider{}, mailer.Noop{}, nil)

	if _, err := svc.ChangeStatus(context.Background(), "order-1", domain.OrderStatusProcessing); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for unpaid order, got %v", err)
	}

	// Cancelling an unpaid order is fine.
	if _, err := svc.ChangeStatus(context.Background(), "order-1", domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel unpaid: %v", err)
	}
}

func TestChangeStatusShippedSendsEmail(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusProcessing, domain.PaymentStatusPaid)}
	mail := &recordingMailer{}
	svc := New(repo, &stubProvider{}, mail, nil)

	if _, err := svc.ChangeStatus(context.Background(), "order-1", domain.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if mail.statusUpdates != 1 {
		t.Fatalf("expected 1 status email, got %d", mail.statusUpdates)
	}
}

func TestCaptureMarksPaid(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusPending, domain.PaymentStatusUnpaid)}
	svc := New(repo, &stubProvider{ref: "off_xyz"}, mailer.Noop{}, nil)

	o, err := svc.Capture(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if o.PaymentStatus != domain.PaymentStatusPaid || o.PaymentRef != "off_xyz" {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestCaptureRetryAfterFailure(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusPending, domain.PaymentStatusFailed)}
	svc := New(repo, &stubProvider{ref: "off_retry"}, mailer.Noop{}, nil)

	o, err := svc.Capture(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("capture after failure: %v", err)
	}
	if o.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status: got %s, want paid", o.PaymentStatus)
	}
}

func TestCaptureFailureRecordsFailed(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusPending, domain.PaymentStatusUnpaid)}
	svc := New(repo, &stubProvider{captureErr: errors.New("declined")}, mailer.Noop{}, nil)

	o, err := svc.Capture(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if o.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status: got %s, want failed", o.PaymentStatus)
	}
}

func TestCaptureRejectsPaidOrder(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusConfirmed, domain.PaymentStatusPaid)}
	svc := New(repo, &stubProvider{}, mailer.Noop{}, nil)

	if _, err := svc.Capture(context.Background(), "order-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestRefund(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusDelivered, domain.PaymentStatusPaid)}
	provider := &stubProvider{}
	svc := New(repo, provider, mailer.Noop{}, nil)

	o, err := svc.Refund(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if o.PaymentStatus != domain.PaymentStatusRefunded {
		t.Fatalf("payment status: got %s", o.PaymentStatus)
	}
	if !provider.refunded {
		t.Fatal("provider refund was not called")
	}
}

func TestRefundRejectsUnpaid(t *testing.T) {
	repo := &stubRepo{order: testOrder(domain.OrderStatusPending, domain.PaymentStatusUnpaid)}
	svc := New(repo, &stubProvider{}, mailer.Noop{}, nil)

	if _, err := svc.Refund(context.Background(), "order-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestGetForCustomer(t *testing.T) {
	owner := "cust-1"
	o := testOrder(domain.OrderStatusPending, domain.PaymentStatusPaid)
	o.CustomerID = &owner
	svc := New(&stubRepo{order: o}, &stubProvider{}, mailer.Noop{}, nil)

	if _, err := svc.GetForCustomer(context.Background(), "order-1", "cust-1"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if _, err := svc.GetForCustomer(context.Background(), "order-1", "cust-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for non-owner, got %v", err)
	}
}
