package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"shopcore/internal/domain"
	categoryrepo "shopcore/internal/repository/category"
	productrepo "shopcore/internal/repository/product"
)

// ErrValidation wraps input problems so handlers can map them to 400s.
var ErrValidation = errors.New("validation")

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Service exposes catalog reads for the storefront and catalog writes for
// the admin console.
type Service struct {
	products   productrepo.Repository
	categories categoryrepo.Repository
}

func New(products productrepo.Repository, categories categoryrepo.Repository) *Service {
	return &Service{products: products, categories: categories}
}

// ListInput mirrors the storefront/admin listing query parameters.
type ListInput struct {
	Query           string
	CategorySlug    string
	IncludeInactive bool
	Limit           int
	Offset          int
}

func (s *Service) ListProducts(ctx context.Context, in ListInput) ([]domain.Product, error) {
	filter := productrepo.ListFilter{
		Query:           strings.TrimSpace(in.Query),
		IncludeInactive: in.IncludeInactive,
		Limit:           in.Limit,
		Offset:          in.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if slug := strings.TrimSpace(in.CategorySlug); slug != "" {
		cat, err := s.categories.GetBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return []domain.Product{}, nil
			}
			return nil, err
		}
		filter.CategoryID = cat.ID
	}
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetProduct resolves UUIDs by ID and anything else by slug, so storefront
// URLs can use either.
func (s *Service) GetProduct(ctx context.Context, idOrSlug string, includeInactive bool) (*domain.Product, error) {
	var (
		p   *domain.Product
		err error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		p, err = s.products.GetByID(ctx, idOrSlug)
	} else {
		p, err = s.products.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !includeInactive && !p.IsActive {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ProductInput carries create/update fields. IsActive nil means "true" on
// create and "unchanged" on update; only an explicit false deactivates.
type ProductInput struct {
	SKU         string  `json:"sku"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"priceCents"`
	Currency    string  `json:"currency"`
	CategoryID  *string `json:"categoryId"`
	Stock       int     `json:"stock"`
	IsActive    *bool   `json:"isActive"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.SKU) == "" {
		return fmt.Errorf("%w: sku required", ErrValidation)
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if in.PriceCents <= 0 {
		return fmt.Errorf("%w: priceCents must be positive", ErrValidation)
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown category", ErrValidation)
			}
			return nil, err
		}
	}
	p := domain.Product{
		SKU:         strings.TrimSpace(in.SKU),
		Slug:        normalizeSlug(in.Slug, in.Name),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	return s.products.Create(ctx, p)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown category", ErrValidation)
			}
			return nil, err
		}
	}
	existing.SKU = strings.TrimSpace(in.SKU)
	existing.Slug = normalizeSlug(in.Slug, in.Name)
	existing.Name = strings.TrimSpace(in.Name)
	existing.Description = strings.TrimSpace(in.Description)
	existing.PriceCents = in.PriceCents
	existing.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	existing.CategoryID = in.CategoryID
	existing.Stock = in.Stock
	if in.IsActive != nil {
		existing.IsActive = *in.IsActive
	}
	return s.products.Update(ctx, *existing)
}

// DeleteProduct removes a product outright. Products referenced by order
// history cannot be dropped and are deactivated instead.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, domain.ErrConflict) {
		p, getErr := s.products.GetByID(ctx, id)
		if getErr != nil {
			return err
		}
		p.IsActive = false
		if _, updErr := s.products.Update(ctx, *p); updErr != nil {
			return updErr
		}
		return nil
	}
	return err
}

func (s *Service) AddProductImages(ctx context.Context, id string, urls []string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		p.Images = append(p.Images, u)
	}
	if err := s.products.SetImages(ctx, id, p.Images); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) RemoveProductImage(ctx context.Context, id, url string) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(p.Images))
	removed := false
	for _, u := range p.Images {
		if u == url {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	if !removed {
		return nil, domain.ErrNotFound
	}
	p.Images = kept
	if err := s.products.SetImages(ctx, id, kept); err != nil {
		return nil, err
	}
	return p, nil
}

type CategoryInput struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	return cats, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	return s.categories.Create(ctx, domain.Category{
		Slug:     normalizeSlug(in.Slug, in.Name),
		Name:     strings.TrimSpace(in.Name),
		Position: in.Position,
	})
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*domain.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	return s.categories.Update(ctx, domain.Category{
		ID:       id,
		Slug:     normalizeSlug(in.Slug, in.Name),
		Name:     strings.TrimSpace(in.Name),
		Position: in.Position,
	})
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

func normalizeSlug(slug, fallback string) string {
	src := strings.TrimSpace(slug)
	if src == "" {
		src = fallback
	}
	out := slugPattern.ReplaceAllString(strings.ToLower(src), "-")
	return strings.Trim(out, "-")
}
