package customer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"shopcore/internal/domain"
	custrepo "shopcore/internal/repository/customer"
	tokenrepo "shopcore/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidation wraps input problems so handlers can map them to 400s.
	ErrValidation = errors.New("validation")
)

type cartCleanup interface {
	AbandonByCustomer(ctx context.Context, customerID string) error
}

type segmentCleanup interface {
	RemoveCustomer(ctx context.Context, customerID string) error
}

// Service handles customer signup/login flows, profile edits and the
// admin-side customer operations.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	carts       cartCleanup
	segments    segmentCleanup
	logger      *log.Logger
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
}

func New(repo custrepo.Repository, tokens tokenrepo.Repository, carts cartCleanup, segments segmentCleanup, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		carts:       carts,
		segments:    segments,
		logger:      logger,
		accessTTL:   48 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 8,
	}
}

// AddressInput mirrors incoming address payloads.
type AddressInput struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	StreetName string `json:"streetName"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email                  string         `json:"email"`
	Password               string         `json:"password"`
	FirstName              string         `json:"firstName"`
	LastName               string         `json:"lastName"`
	Addresses              []AddressInput `json:"addresses"`
	DefaultShippingAddress *int           `json:"defaultShippingAddress"`
	DefaultBillingAddress  *int           `json:"defaultBillingAddress"`
}

// Signup registers a new customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	addresses := make([]domain.Address, 0, len(in.Addresses))
	for _, a := range in.Addresses {
		addresses = append(addresses, toAddress(a))
	}

	shippingID := addressIDFromIndex(addresses, in.DefaultShippingAddress)
	if shippingID == "" && len(addresses) > 0 {
		shippingID = addresses[0].ID
	}
	billingID := addressIDFromIndex(addresses, in.DefaultBillingAddress)
	if billingID == "" && len(addresses) > 0 {
		billingID = addresses[0].ID
	}

	customer := domain.Customer{
		Email:                    email,
		PasswordHash:             string(hashed),
		FirstName:                in.FirstName,
		LastName:                 in.LastName,
		Addresses:                addresses,
		DefaultShippingAddressID: shippingID,
		DefaultBillingAddressID:  billingID,
		IsActive:                 true,
	}
	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("customer: signup id=%s", created.ID)
	return created, nil
}

// Login validates credentials and returns issued tokens plus the customer.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, string, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if !c.IsActive {
		return nil, "", "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	access, refresh, err := s.issuePair(ctx, c.ID)
	if err != nil {
		return nil, "", "", err
	}
	return c, access, refresh, nil
}

// Refresh rotates the token pair bound to a valid refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*domain.Customer, string, string, error) {
	customerID, ok := s.tokens.ValidateRefresh(ctx, refreshToken)
	if !ok {
		return nil, "", "", ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil || !c.IsActive {
		return nil, "", "", ErrInvalidToken
	}
	s.tokens.Revoke(ctx, refreshToken)
	access, refresh, err := s.issuePair(ctx, c.ID)
	if err != nil {
		return nil, "", "", err
	}
	return c, access, refresh, nil
}

// Logout revokes the presented tokens.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) {
	if accessToken != "" {
		s.tokens.Revoke(ctx, accessToken)
	}
	if refreshToken != "" {
		s.tokens.Revoke(ctx, refreshToken)
	}
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	customerID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !c.IsActive {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

// ProfileInput carries self-service profile edits.
type ProfileInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *Service) UpdateProfile(ctx context.Context, customerID string, in ProfileInput) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	return s.repo.Update(ctx, *c)
}

func (s *Service) AddAddress(ctx context.Context, customerID string, in AddressInput) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	addr := toAddress(in)
	c.Addresses = append(c.Addresses, addr)
	if c.DefaultShippingAddressID == "" {
		c.DefaultShippingAddressID = addr.ID
	}
	if c.DefaultBillingAddressID == "" {
		c.DefaultBillingAddressID = addr.ID
	}
	return s.repo.Update(ctx, *c)
}

func (s *Service) RemoveAddress(ctx context.Context, customerID, addressID string) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	kept := make([]domain.Address, 0, len(c.Addresses))
	removed := false
	for _, a := range c.Addresses {
		if a.ID == addressID {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return nil, domain.ErrNotFound
	}
	c.Addresses = kept
	if c.DefaultShippingAddressID == addressID {
		c.DefaultShippingAddressID = ""
	}
	if c.DefaultBillingAddressID == addressID {
		c.DefaultBillingAddressID = ""
	}
	return s.repo.Update(ctx, *c)
}

// --- admin operations ---

func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]domain.Customer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	customers, err := s.repo.List(ctx, custrepo.ListFilter{Query: query, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	return customers, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// AdminUpdateInput carries admin-side customer edits. IsActive nil leaves
// the flag unchanged; only an explicit false deactivates.
type AdminUpdateInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  *bool  `json:"isActive"`
}

func (s *Service) AdminUpdate(ctx context.Context, id string, in AdminUpdateInput) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email := strings.TrimSpace(strings.ToLower(in.Email)); email != "" {
		c.Email = email
	}
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	wasActive := c.IsActive
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	updated, err := s.repo.Update(ctx, *c)
	if err != nil {
		return nil, err
	}
	if wasActive && !updated.IsActive {
		if err := s.tokens.RevokeAll(ctx, id); err != nil {
			s.logger.Printf("customer: revoke tokens for deactivated %s: %v", id, err)
		}
	}
	return updated, nil
}

// Delete removes a customer with best-effort sequential cleanup: tokens,
// carts and segment memberships first, then the record. Partial cleanup
// failures are logged and skipped past; only the final delete is fatal.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.tokens.RevokeAll(ctx, id); err != nil {
		s.logger.Printf("customer: delete %s: revoke tokens: %v", id, err)
	}
	if err := s.carts.AbandonByCustomer(ctx, id); err != nil {
		s.logger.Printf("customer: delete %s: abandon carts: %v", id, err)
	}
	if err := s.segments.RemoveCustomer(ctx, id); err != nil {
		s.logger.Printf("customer: delete %s: segment memberships: %v", id, err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) issuePair(ctx context.Context, customerID string) (string, string, error) {
	access, err := s.tokens.Issue(ctx, customerID, kindAccess, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.Issue(ctx, customerID, kindRefresh, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func toAddress(in AddressInput) domain.Address {
	return domain.Address{
		ID:         randomAddressID(),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		StreetName: in.StreetName,
		City:       in.City,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
	}
}

func addressIDFromIndex(addresses []domain.Address, idx *int) string {
	if idx == nil {
		return ""
	}
	if *idx < 0 || *idx >= len(addresses) {
		return ""
	}
	return addresses[*idx].ID
}

func randomAddressID() string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	}
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
