package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"shopcore/internal/domain"
)

// Provider captures and refunds payments for orders. Implementations talk to
// whatever processes the money; the order workflow only sees the reference
// string and the error.
type Provider interface {
	Capture(ctx context.Context, o domain.Order) (string, error)
	Refund(ctx context.Context, o domain.Order) error
}

// OfflineProvider records payment intents locally without an external
// processor. Orders are settled out of band (invoice, on delivery).
type OfflineProvider struct{}

func NewOffline() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) Capture(_ context.Context, o domain.Order) (string, error) {
	if o.TotalCents <= 0 {
		return "", fmt.Errorf("capture %s: non-positive total %d", o.Number, o.TotalCents)
	}
	return "off_" + uuid.NewString(), nil
}

func (p *OfflineProvider) Refund(_ context.Context, o domain.Order) error {
	if o.PaymentRef == "" {
		return fmt.Errorf("refund %s: no payment reference", o.Number)
	}
	return nil
}

// Retrying wraps a Provider with exponential backoff so transient provider
// failures do not fail a checkout outright.
type Retrying struct {
	inner       Provider
	maxElapsed  time.Duration
	maxInterval time.Duration
}

func WithRetry(inner Provider) *Retrying {
	return &Retrying{
		inner:       inner,
		maxElapsed:  15 * time.Second,
		maxInterval: 2 * time.Second,
	}
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsed
	b.MaxInterval = r.maxInterval
	return backoff.WithContext(b, ctx)
}

func (r *Retrying) Capture(ctx context.Context, o domain.Order) (string, error) {
	var ref string
	op := func() error {
		var err error
		ref, err = r.inner.Capture(ctx, o)
		return err
	}
	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		return "", err
	}
	return ref, nil
}

func (r *Retrying) Refund(ctx context.Context, o domain.Order) error {
	return backoff.Retry(func() error {
		return r.inner.Refund(ctx, o)
	}, r.policy(ctx))
}
