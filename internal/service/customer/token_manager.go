package customer

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"shopcore/internal/domain"
	tokenrepo "shopcore/internal/repository/token"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// tokenManager issues and validates opaque customer tokens. Access tokens
// are stored verbatim; refresh tokens are stored as sha256 hashes so a DB
// leak cannot replay them.
type tokenManager struct {
	repo tokenrepo.Repository
}

func newTokenManager(repo tokenrepo.Repository) *tokenManager {
	return &tokenManager{repo: repo}
}

func (m *tokenManager) Issue(ctx context.Context, customerID, kind string, ttl time.Duration) (string, error) {
	expiresAt := time.Now().Add(ttl)
	for i := 0; i < 5; i++ {
		plain, err := randomToken()
		if err != nil {
			return "", err
		}
		stored := plain
		if kind == kindRefresh {
			stored = hashToken(plain)
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:      stored,
			CustomerID: customerID,
			Kind:       kind,
			ExpiresAt:  expiresAt,
		})
		if err == nil {
			return plain, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// Validate resolves an access token to its customer ID.
func (m *tokenManager) Validate(ctx context.Context, token string) (string, bool) {
	return m.lookup(ctx, token, kindAccess)
}

// ValidateRefresh resolves a refresh token to its customer ID.
func (m *tokenManager) ValidateRefresh(ctx context.Context, token string) (string, bool) {
	return m.lookup(ctx, hashToken(token), kindRefresh)
}

func (m *tokenManager) lookup(ctx context.Context, stored, kind string) (string, bool) {
	meta, err := m.repo.Get(ctx, stored)
	if err != nil {
		return "", false
	}
	if meta.Kind != kind {
		return "", false
	}
	if time.Now().After(meta.ExpiresAt) {
		_ = m.repo.Delete(ctx, stored)
		return "", false
	}
	return meta.CustomerID, true
}

// Revoke removes a token regardless of kind.
func (m *tokenManager) Revoke(ctx context.Context, token string) {
	_ = m.repo.Delete(ctx, token)
	_ = m.repo.Delete(ctx, hashToken(token))
}

func (m *tokenManager) RevokeAll(ctx context.Context, customerID string) error {
	return m.repo.DeleteByCustomer(ctx, customerID)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
