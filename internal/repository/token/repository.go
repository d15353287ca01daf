package token

import (
	"context"
	"time"
)

// Token is an opaque customer auth token row. Refresh tokens are stored as
// sha256 hashes, access tokens verbatim.
type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, t Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteByCustomer(ctx context.Context, customerID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
