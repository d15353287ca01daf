package cart

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"shopcore/internal/domain"
	cartrepo "shopcore/internal/repository/cart"
)

var (
	// ErrValidation wraps input problems so handlers can map them to 400s.
	ErrValidation = errors.New("validation")
	// ErrForbidden means the caller does not own the cart.
	ErrForbidden = errors.New("forbidden")
	// ErrNotActive means the cart was already ordered or abandoned.
	ErrNotActive = errors.New("cart not active")
)

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, line domain.CartLine) error
	SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

type Service struct {
	repo     cartRepo
	products productRepo
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// Accessor identifies who is acting on a cart: an authenticated customer or
// a guest presenting the cart token.
type Accessor struct {
	CustomerID *string
	Token      string
}

type CreateInput struct {
	Currency string `json:"currency"`
}

// Create opens a cart. Authenticated customers are handed their existing
// active cart instead of a second one.
func (s *Service) Create(ctx context.Context, in CreateInput, acc Accessor) (*domain.Cart, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	if acc.CustomerID != nil {
		existing, err := s.repo.GetActiveByCustomer(ctx, *acc.CustomerID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, cartrepo.CreateCartInput{
		Token:      token,
		CustomerID: acc.CustomerID,
		Currency:   currency,
	})
}

// Get loads a cart the accessor is allowed to see. Unknown carts and carts
// owned by someone else both come back as not found.
func (s *Service) Get(ctx context.Context, id string, acc Accessor) (*domain.Cart, error) {
	cart, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(cart, acc); err != nil {
		return nil, err
	}
	return cart, nil
}

type UpdateAction struct {
	Action     string `json:"action"`
	SKU        string `json:"sku,omitempty"`
	LineItemID string `json:"lineItemId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions"`
}

// Update applies a batch of cart actions and returns the recomputed cart.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput, acc Accessor) (*domain.Cart, error) {
	cart, err := s.Get(ctx, id, acc)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, ErrNotActive
	}
	if len(in.Actions) == 0 {
		return nil, fmt.Errorf("%w: at least one action required", ErrValidation)
	}

	for _, action := range in.Actions {
		switch action.Action {
		case "addLineItem":
			if err := s.addLine(ctx, cart, action); err != nil {
				return nil, err
			}
		case "changeLineItemQuantity":
			if err := s.changeQuantity(ctx, cart, action); err != nil {
				return nil, err
			}
		case "removeLineItem":
			if action.LineItemID == "" {
				return nil, fmt.Errorf("%w: lineItemId required", ErrValidation)
			}
			if err := s.repo.RemoveLine(ctx, cart.ID, action.LineItemID); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, action.Action)
		}
		// Re-read between actions so stock checks see earlier changes.
		cart, err = s.repo.GetByID(ctx, cart.ID)
		if err != nil {
			return nil, err
		}
	}
	return cart, nil
}

func (s *Service) addLine(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	if strings.TrimSpace(action.SKU) == "" {
		return fmt.Errorf("%w: sku required", ErrValidation)
	}
	qty := action.Quantity
	if qty <= 0 {
		qty = 1
	}
	product, err := s.products.GetBySKU(ctx, action.SKU)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown sku %q", ErrValidation, action.SKU)
		}
		return err
	}
	if !product.IsActive {
		return fmt.Errorf("%w: product %q is unavailable", ErrValidation, action.SKU)
	}
	inCart := 0
	for _, l := range cart.Lines {
		if l.ProductID == product.ID {
			inCart = l.Quantity
			break
		}
	}
	if inCart+qty > product.Stock {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, action.SKU)
	}
	return s.repo.AddLine(ctx, cart.ID, domain.CartLine{
		ProductID:      product.ID,
		SKU:            product.SKU,
		Name:           product.Name,
		Quantity:       qty,
		UnitPriceCents: product.PriceCents,
		TotalCents:     int64(qty) * product.PriceCents,
	})
}

func (s *Service) changeQuantity(ctx context.Context, cart *domain.Cart, action UpdateAction) error {
	if action.LineItemID == "" {
		return fmt.Errorf("%w: lineItemId required", ErrValidation)
	}
	if action.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	if action.Quantity == 0 {
		return s.repo.RemoveLine(ctx, cart.ID, action.LineItemID)
	}

	var line *domain.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ID == action.LineItemID {
			line = &cart.Lines[i]
			break
		}
	}
	if line == nil {
		return domain.ErrNotFound
	}
	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return err
	}
	if action.Quantity > product.Stock {
		return fmt.Errorf("%w: %s", domain.ErrInsufficientStock, product.SKU)
	}
	return s.repo.SetLineQuantity(ctx, cart.ID, action.LineItemID, action.Quantity)
}

func authorize(cart *domain.Cart, acc Accessor) error {
	if cart.CustomerID != nil {
		if acc.CustomerID == nil || *acc.CustomerID != *cart.CustomerID {
			return domain.ErrNotFound
		}
		return nil
	}
	if acc.Token == "" || acc.Token != cart.Token {
		return ErrForbidden
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
