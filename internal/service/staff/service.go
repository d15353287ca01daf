package staff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"shopcore/internal/domain"
	rolerepo "shopcore/internal/repository/role"
	staffrepo "shopcore/internal/repository/staff"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the presented JWT could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidation wraps input problems so handlers can map them to 400s.
	ErrValidation = errors.New("validation")
	// ErrProtected rejects edits that would lock everyone out or touch
	// system roles.
	ErrProtected = errors.New("protected")
)

// Claims is the verified content of a staff JWT.
type Claims struct {
	UserID      string
	Email       string
	Role        string
	Permissions []string
}

// HasPermission reports whether the token grants p.
func (c Claims) HasPermission(p string) bool {
	for _, granted := range c.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Service authenticates admin-console users and manages staff accounts and
// roles.
type Service struct {
	users    staffrepo.Repository
	roles    rolerepo.Repository
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Logger
}

func New(users staffrepo.Repository, roles rolerepo.Repository, jwtSecret string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		users:    users,
		roles:    roles,
		secret:   []byte(jwtSecret),
		tokenTTL: 12 * time.Hour,
		logger:   logger,
	}
}

// Login verifies credentials and returns a signed JWT carrying the user's
// role and permissions.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.StaffUser, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	role, err := s.roles.GetByID(ctx, u.RoleID)
	if err != nil {
		return "", nil, fmt.Errorf("load role: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"role":  role.Name,
		"perms": role.Permissions,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	s.logger.Printf("staff: login id=%s role=%s", u.ID, role.Name)
	return signed, u, nil
}

// ParseToken validates a staff JWT and extracts its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.UserID = sub
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if raw, ok := mapClaims["perms"].([]interface{}); ok {
		for _, p := range raw {
			if perm, ok := p.(string); ok {
				claims.Permissions = append(claims.Permissions, perm)
			}
		}
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// --- staff accounts ---

type UserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   string `json:"roleId"`
	IsActive *bool  `json:"isActive"`
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.StaffUser, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.StaffUser{}
	}
	return users, nil
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (*domain.StaffUser, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(strings.TrimSpace(in.Password)) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if in.RoleID == "" {
		return nil, fmt.Errorf("%w: roleId required", ErrValidation)
	}
	if _, err := s.roles.GetByID(ctx, in.RoleID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown role", ErrValidation)
		}
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(in.Password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.Create(ctx, domain.StaffUser{
		Email:        email,
		PasswordHash: string(hashed),
		RoleID:       in.RoleID,
		IsActive:     in.IsActive == nil || *in.IsActive,
	})
}

func (s *Service) UpdateUser(ctx context.Context, id, actorID string, in UserInput) (*domain.StaffUser, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if email := strings.TrimSpace(strings.ToLower(in.Email)); email != "" {
		u.Email = email
	}
	if password := strings.TrimSpace(in.Password); password != "" {
		if len(password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hashed)
	}
	if in.RoleID != "" {
		if _, err := s.roles.GetByID(ctx, in.RoleID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown role", ErrValidation)
			}
			return nil, err
		}
		u.RoleID = in.RoleID
	}
	if in.IsActive != nil {
		if !*in.IsActive {
			if err := s.guardLastActive(ctx, id, actorID); err != nil {
				return nil, err
			}
		}
		u.IsActive = *in.IsActive
	}
	return s.users.Update(ctx, *u)
}

func (s *Service) DeleteUser(ctx context.Context, id, actorID string) error {
	if err := s.guardLastActive(ctx, id, actorID); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// guardLastActive blocks removing yourself or the last active account.
func (s *Service) guardLastActive(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return fmt.Errorf("%w: cannot remove your own account", ErrProtected)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	count, err := s.users.CountActive(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return fmt.Errorf("%w: cannot remove the last active staff user", ErrProtected)
	}
	return nil
}

// --- roles ---

type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func (s *Service) ListRoles(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []domain.Role{}
	}
	return roles, nil
}

func (s *Service) Permissions() []string {
	return domain.AllPermissions
}

func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*domain.Role, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if err := validatePermissions(in.Permissions); err != nil {
		return nil, err
	}
	return s.roles.Create(ctx, domain.Role{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Permissions: in.Permissions,
	})
}

func (s *Service) UpdateRole(ctx context.Context, id string, in RoleInput) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePermissions(in.Permissions); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if role.IsSystem {
		// System role names are fixed; only description and permissions move.
		if name != "" && name != role.Name {
			return nil, fmt.Errorf("%w: system role cannot be renamed", ErrProtected)
		}
	} else if name != "" {
		role.Name = name
	}
	role.Description = strings.TrimSpace(in.Description)
	role.Permissions = in.Permissions
	return s.roles.Update(ctx, *role)
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: system role cannot be deleted", ErrProtected)
	}
	return s.roles.Delete(ctx, id)
}

func validatePermissions(perms []string) error {
	for _, p := range perms {
		if !domain.ValidPermission(p) {
			return fmt.Errorf("%w: unknown permission %q", ErrValidation, p)
		}
	}
	return nil
}
