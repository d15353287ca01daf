package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"shopcore/internal/domain"
	"shopcore/internal/mailer"
	"shopcore/internal/payment"
)

var (
	// ErrValidation wraps input problems so handlers can map them to 400s.
	ErrValidation = errors.New("validation")
	// ErrEmptyCart rejects checking out a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartNotActive rejects re-checking-out an ordered or abandoned cart.
	ErrCartNotActive = errors.New("cart not active")
	// ErrForbidden means the caller does not own the cart.
	ErrForbidden = errors.New("forbidden")
)

type cartRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	SetState(ctx context.Context, cartID, state string) error
}

type orderRepo interface {
	Create(ctx context.Context, o domain.Order, numberPrefix string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.PaymentStatus, ref string) (*domain.Order, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type settingsRepo interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// Service turns an active cart into an order: totals, stock, payment
// capture, confirmation email.
type Service struct {
	carts    cartRepo
	orders   orderRepo
	products productRepo
	settings settingsRepo
	provider payment.Provider
	mail     mailer.Mailer
	logger   *log.Logger
}

func New(carts cartRepo, orders orderRepo, products productRepo, settings settingsRepo, provider payment.Provider, mail mailer.Mailer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:    carts,
		orders:   orders,
		products: products,
		settings: settings,
		provider: provider,
		mail:     mail,
		logger:   logger,
	}
}

type Input struct {
	CartID          string         `json:"cartId"`
	CartToken       string         `json:"-"`
	CustomerID      *string        `json:"-"`
	Email           string         `json:"email"`
	ShippingAddress domain.Address `json:"shippingAddress"`
}

// Checkout places an order from the cart. The order survives payment
// failure: it stays pending with paymentStatus failed rather than being
// rolled back.
func (s *Service) Checkout(ctx context.Context, in Input) (*domain.Order, error) {
	if strings.TrimSpace(in.CartID) == "" {
		return nil, fmt.Errorf("%w: cartId required", ErrValidation)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if strings.TrimSpace(in.ShippingAddress.StreetName) == "" || strings.TrimSpace(in.ShippingAddress.Country) == "" {
		return nil, fmt.Errorf("%w: shipping address requires street and country", ErrValidation)
	}

	cart, err := s.carts.GetByID(ctx, in.CartID)
	if err != nil {
		return nil, err
	}
	if cart.CustomerID != nil {
		if in.CustomerID == nil || *in.CustomerID != *cart.CustomerID {
			return nil, domain.ErrNotFound
		}
	} else if in.CartToken == "" || in.CartToken != cart.Token {
		return nil, ErrForbidden
	}
	if cart.State != domain.CartStateActive {
		return nil, ErrCartNotActive
	}
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s no longer exists", ErrValidation, line.SKU)
			}
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("%w: product %s is no longer available", ErrValidation, line.SKU)
		}
		items = append(items, domain.OrderItem{
			ProductID:      line.ProductID,
			SKU:            line.SKU,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     line.TotalCents,
		})
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	subtotal := cart.Subtotal()
	shipping := cfg.ShippingFor(subtotal)
	order := domain.Order{
		CustomerID:      cart.CustomerID,
		Email:           email,
		Items:           items,
		SubtotalCents:   subtotal,
		ShippingCents:   shipping,
		TotalCents:      subtotal + shipping,
		Currency:        cart.Currency,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		ShippingAddress: in.ShippingAddress,
	}

	created, err := s.orders.Create(ctx, order, cfg.OrderNumberPrefix)
	if err != nil {
		return nil, err
	}

	if err := s.carts.SetState(ctx, cart.ID, domain.CartStateOrdered); err != nil {
		s.logger.Printf("checkout: mark cart %s ordered: %v", cart.ID, err)
	}

	ref, err := s.provider.Capture(ctx, *created)
	if err != nil {
		s.logger.Printf("checkout: capture for %s failed: %v", created.Number, err)
		if failed, updErr := s.orders.UpdatePayment(ctx, created.ID, domain.PaymentStatusFailed, ""); updErr != nil {
			s.logger.Printf("checkout: record failed payment for %s: %v", created.Number, updErr)
		} else {
			created = failed
		}
		return created, nil
	}
	paid, err := s.orders.UpdatePayment(ctx, created.ID, domain.PaymentStatusPaid, ref)
	if err != nil {
		s.logger.Printf("checkout: record payment for %s: %v", created.Number, err)
	} else {
		created = paid
	}

	if err := s.mail.SendOrderConfirmation(ctx, *created); err != nil {
		s.logger.Printf("checkout: confirmation email for %s: %v", created.Number, err)
	}

	return created, nil
}
