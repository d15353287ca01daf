package checkout

import (
	"context"
	"errors"
	"testing"

	"shopcore/internal/domain"
	"shopcore/internal/mailer"
)

type stubCartRepo struct {
	cart      *domain.Cart
	lastState string
}

func (r *stubCartRepo) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	if r.cart == nil || r.cart.ID != id {
		return nil, domain.ErrNotFound
	}
	return r.cart, nil
}

func (r *stubCartRepo) SetState(_ context.Context, _, state string) error {
	r.lastState = state
	return nil
}

type stubOrderRepo struct {
	created    *domain.Order
	createErr  error
	lastStatus domain.PaymentStatus
	lastRef    string
}

func (r *stubOrderRepo) Create(_ context.Context, o domain.Order, numberPrefix string) (*domain.Order, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	o.ID = "order-1"
	o.Number = numberPrefix + "-100001"
	r.created = &o
	return &o, nil
}

func (r *stubOrderRepo) UpdatePayment(_ context.Context, _ string, status domain.PaymentStatus, ref string) (*domain.Order, error) {
	r.lastStatus = status
	if ref != "" {
		r.lastRef = ref
	}
	o := *r.created
	o.PaymentStatus = status
	o.PaymentRef = r.lastRef
	r.created = &o
	return &o, nil
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (r *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type stubSettingsRepo struct{}

func (stubSettingsRepo) Get(_ context.Context) (*domain.Settings, error) {
	return &domain.Settings{
		OrderNumberPrefix:          "SC",
		FlatShippingCents:          500,
		FreeShippingThresholdCents: 10000,
	}, nil
}

type stubProvider struct {
	ref string
	err error
}

func (p *stubProvider) Capture(_ context.Context, _ domain.Order) (string, error) {
	return p.ref, p.err
}

func (p *stubProvider) Refund(_ context.Context, _ domain.Order) error {
	return nil
}

func activeCart() *domain.Cart {
	return &domain.Cart{
		ID:       "cart-1",
		Token:    "tok",
		Currency: "USD",
		State:    domain.CartStateActive,
		Lines: []domain.CartLine{
			{ID: "line-1", ProductID: "prod-1", SKU: "SKU-1", Name: "Widget", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000},
		},
	}
}

func validInput() Input {
	return Input{
		CartID:    "cart-1",
		CartToken: "tok",
		Email:     "buyer@example.com",
		ShippingAddress: domain.Address{
			StreetName: "1 Main St",
			City:       "Springfield",
			Country:    "US",
		},
	}
}

func newService(carts *stubCartRepo, orders *stubOrderRepo, provider *stubProvider) *Service {
	products := &stubProductRepo{products: map[string]*domain.Product{
		"prod-1": {ID: "prod-1", SKU: "SKU-1", IsActive: true, Stock: 10},
	}}
	return New(carts, orders, products, stubSettingsRepo{}, provider, mailer.Noop{}, nil)
}

func TestCheckoutHappyPath(t *testing.T) {
	carts := &stubCartRepo{cart: activeCart()}
	orders := &stubOrderRepo{}
	svc := newService(carts, orders, &stubProvider{ref: "off_abc"})

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.SubtotalCents != 2000 || order.ShippingCents != 500 || order.TotalCents != 2500 {
		t.Fatalf("totals: %+v", order)
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Fatalf("payment status: got %s, want paid", order.PaymentStatus)
	}
	if order.PaymentRef != "off_abc" {
		t.Fatalf("payment ref: got %q", order.PaymentRef)
	}
	if carts.lastState != domain.CartStateOrdered {
		t.Fatalf("cart state: got %q, want ordered", carts.lastState)
	}
}

func TestCheckoutFreeShippingAboveThreshold(t *testing.T) {
	cart := activeCart()
	cart.Lines[0].Quantity = 12
	cart.Lines[0].TotalCents = 12000
	carts := &stubCartRepo{cart: cart}
	svc := newService(carts, &stubOrderRepo{}, &stubProvider{ref: "off_abc"})

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.ShippingCents != 0 {
		t.Fatalf("shipping: got %d, want 0", order.ShippingCents)
	}
}

func TestCheckoutPaymentFailureKeepsOrder(t *testing.T) {
	carts := &stubCartRepo{cart: activeCart()}
	orders := &stubOrderRepo{}
	svc := newService(carts, orders, &stubProvider{err: errors.New("gateway down")})

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout should not fail on payment error: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status: got %s, want failed", order.PaymentStatus)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("order status: got %s, want pending", order.Status)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	cart := activeCart()
	cart.Lines = nil
	svc := newService(&stubCartRepo{cart: cart}, &stubOrderRepo{}, &stubProvider{})

	if _, err := svc.Checkout(context.Background(), validInput()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
}

func TestCheckoutOrderedCart(t *testing.T) {
	cart := activeCart()
	cart.State = domain.CartStateOrdered
	svc := newService(&stubCartRepo{cart: cart}, &stubOrderRepo{}, &stubProvider{})

	if _, err := svc.Checkout(context.Background(), validInput()); !errors.Is(err, ErrCartNotActive) {
		t.Fatalf("expected not active error, got %v", err)
	}
}

func TestCheckoutWrongToken(t *testing.T) {
	svc := newService(&stubCartRepo{cart: activeCart()}, &stubOrderRepo{}, &stubProvider{})

	in := validInput()
	in.CartToken = "nope"
	if _, err := svc.Checkout(context.Background(), in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCheckoutOtherCustomersCart(t *testing.T) {
	owner := "cust-1"
	cart := activeCart()
	cart.CustomerID = &owner
	svc := newService(&stubCartRepo{cart: cart}, &stubOrderRepo{}, &stubProvider{})

	other := "cust-2"
	in := validInput()
	in.CustomerID = &other
	if _, err := svc.Checkout(context.Background(), in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCheckoutInactiveProduct(t *testing.T) {
	carts := &stubCartRepo{cart: activeCart()}
	products := &stubProductRepo{products: map[string]*domain.Product{
		"prod-1": {ID: "prod-1", SKU: "SKU-1", IsActive: false},
	}}
	svc := New(carts, &stubOrderRepo{}, products, stubSettingsRepo{}, &stubProvider{}, mailer.Noop{}, nil)

	if _, err := svc.Checkout(context.Background(), validInput()); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutMissingAddress(t *testing.T) {
	svc := newService(&stubCartRepo{cart: activeCart()}, &stubOrderRepo{}, &stubProvider{})

	in := validInput()
	in.ShippingAddress.StreetName = ""
	if _, err := svc.Checkout(context.Background(), in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutInsufficientStockSurfaces(t *testing.T) {
	orders := &stubOrderRepo{createErr: domain.ErrInsufficientStock}
	svc := newService(&stubCartRepo{cart: activeCart()}, orders, &stubProvider{})

	if _, err := svc.Checkout(context.Background(), validInput()); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}
