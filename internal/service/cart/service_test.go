package cart

import (
	"context"
	"errors"
	"testing"

	"shopcore/internal/domain"
	cartrepo "shopcore/internal/repository/cart"
)

type stubCartRepo struct {
	carts map[string]*domain.Cart

	nextLineID int
}

func newStubCartRepo(carts ...*domain.Cart) *stubCartRepo {
	r := &stubCartRepo{carts: make(map[string]*domain.Cart)}
	for _, c := range carts {
		r.carts[c.ID] = c
	}
	return r
}

func (r *stubCartRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	c := &domain.Cart{
		ID:         "cart-new",
		Token:      in.Token,
		CustomerID: in.CustomerID,
		Currency:   in.Currency,
		State:      domain.CartStateActive,
	}
	r.carts[c.ID] = c
	return c, nil
}

func (r *stubCartRepo) GetByID(_ context.Context, id string) (*domain.Cart, error) {
	c, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	cp.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &cp, nil
}

func (r *stubCartRepo) GetActiveByCustomer(_ context.Context, customerID string) (*domain.Cart, error) {
	for _, c := range r.carts {
		if c.CustomerID != nil && *c.CustomerID == customerID && c.State == domain.CartStateActive {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubCartRepo) AddLine(_ context.Context, cartID string, line domain.CartLine) error {
	c, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == line.ProductID {
			c.Lines[i].Quantity += line.Quantity
			c.Lines[i].TotalCents = int64(c.Lines[i].Quantity) * c.Lines[i].UnitPriceCents
			return nil
		}
	}
	r.nextLineID++
	line.ID = "line-" + string(rune('0'+r.nextLineID))
	line.CartID = cartID
	c.Lines = append(c.Lines, line)
	return nil
}

func (r *stubCartRepo) SetLineQuantity(_ context.Context, cartID, lineID string, quantity int) error {
	c, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = quantity
			c.Lines[i].TotalCents = int64(quantity) * c.Lines[i].UnitPriceCents
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubCartRepo) RemoveLine(_ context.Context, cartID, lineID string) error {
	c, ok := r.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
	return nil
}

type stubProductRepo struct {
	products map[string]*domain.Product
}

func (r *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	p, ok := r.products[sku]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func testProducts() *stubProductRepo {
	return &stubProductRepo{products: map[string]*domain.Product{
		"SKU-1": {ID: "prod-1", SKU: "SKU-1", Name: "Widget", PriceCents: 1000, Stock: 5, IsActive: true},
		"SKU-2": {ID: "prod-2", SKU: "SKU-2", Name: "Gadget", PriceCents: 2500, Stock: 0, IsActive: true},
		"SKU-3": {ID: "prod-3", SKU: "SKU-3", Name: "Gone", PriceCents: 500, Stock: 9, IsActive: false},
	}}
}

func TestCreateReusesActiveCustomerCart(t *testing.T) {
	custID := "cust-1"
	existing := &domain.Cart{ID: "cart-1", CustomerID: &custID, State: domain.CartStateActive, Currency: "USD"}
	svc := New(newStubCartRepo(existing), testProducts())

	cart, err := svc.Create(context.Background(), CreateInput{Currency: "usd"}, Accessor{CustomerID: &custID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cart.ID != "cart-1" {
		t.Fatalf("expected existing cart to be reused, got %s", cart.ID)
	}
}

func TestCreateRejectsBadCurrency(t *testing.T) {
	svc := New(newStubCartRepo(), testProducts())
	if _, err := svc.Create(context.Background(), CreateInput{Currency: "dollars"}, Accessor{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGuestCartRequiresToken(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "secret", State: domain.CartStateActive}
	svc := New(newStubCartRepo(cart), testProducts())

	if _, err := svc.Get(context.Background(), "cart-1", Accessor{Token: "wrong"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "cart-1", Accessor{Token: "secret"}); err != nil {
		t.Fatalf("expected access with token, got %v", err)
	}
}

func TestCustomerCartHiddenFromOthers(t *testing.T) {
	owner := "cust-1"
	other := "cust-2"
	cart := &domain.Cart{ID: "cart-1", CustomerID: &owner, State: domain.CartStateActive}
	svc := New(newStubCartRepo(cart), testProducts())

	if _, err := svc.Get(context.Background(), "cart-1", Accessor{CustomerID: &other}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other customer, got %v", err)
	}
}

func TestUpdateAddLineItem(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive, Currency: "USD"}
	svc := New(newStubCartRepo(cart), testProducts())

	got, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-1", Quantity: 2},
	}}, Accessor{Token: "tok"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines: %+v", got.Lines)
	}
	if got.Subtotal() != 2000 {
		t.Fatalf("subtotal: got %d, want 2000", got.Subtotal())
	}
}

func TestUpdateAddLineItemInsufficientStock(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive}
	svc := New(newStubCartRepo(cart), testProducts())

	_, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-1", Quantity: 6},
	}}, Accessor{Token: "tok"})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestUpdateAddLineItemCountsExistingQuantity(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive}
	repo := newStubCartRepo(cart)
	svc := New(repo, testProducts())

	_, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-1", Quantity: 3},
		{Action: "addLineItem", SKU: "SKU-1", Quantity: 3},
	}}, Accessor{Token: "tok"})
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock across actions, got %v", err)
	}
}

func TestUpdateRejectsInactiveProduct(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive}
	svc := New(newStubCartRepo(cart), testProducts())

	_, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-3"},
	}}, Accessor{Token: "tok"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}
}

func TestUpdateChangeQuantityToZeroRemovesLine(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive, Lines: []domain.CartLine{
		{ID: "line-1", ProductID: "prod-1", SKU: "SKU-1", Quantity: 2, UnitPriceCents: 1000, TotalCents: 2000},
	}}
	svc := New(newStubCartRepo(cart), testProducts())

	got, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "changeLineItemQuantity", LineItemID: "line-1", Quantity: 0},
	}}, Accessor{Token: "tok"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", got.Lines)
	}
}

func TestUpdateRejectsOrderedCart(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateOrdered}
	svc := New(newStubCartRepo(cart), testProducts())

	_, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-1"},
	}}, Accessor{Token: "tok"})
	if !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
}

func TestUpdateUnknownAction(t *testing.T) {
	cart := &domain.Cart{ID: "cart-1", Token: "tok", State: domain.CartStateActive}
	svc := New(newStubCartRepo(cart), testProducts())

	_, err := svc.Update(context.Background(), "cart-1", UpdateInput{Actions: []UpdateAction{
		{Action: "explodeCart"},
	}}, Accessor{Token: "tok"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
