package services

import (
	"context"
	"strings"

	"secondhand/internal/domain"
	"secondhand/internal/repos"
)

type CatalogService struct {
	Prods repos.ProductStore
}

func NewCatalogService(prods repos.ProductStore) *CatalogService {
	return &CatalogService{Prods: prods}
}

// Filter narrows a listing. Empty fields do not filter.
type Filter struct {
	Q        string
	Category string // tab slug: all, baby, clothes, toys, furniture, learning, sports
	Status   domain.ListingStatus
}

func (s *CatalogService) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	all, err := s.Prods.All(ctx)
	if err != nil {
		return nil, err
	}
	out := FilterCategory(all, f.Category)
	out = Search(out, f.Q)
	if f.Status != "" {
		kept := make([]domain.Product, 0, len(out))
		for _, p := range out {
			if p.Status == f.Status {
				kept = append(kept, p)
			}
		}
		out = kept
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) BySeller(ctx context.Context, name string) ([]domain.Product, error) {
	return s.Prods.BySeller(ctx, name)
}

// Search keeps products whose name, category, brand or description contains q,
// ignoring case. A blank q keeps everything.
func Search(products []domain.Product, q string) []domain.Product {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(string(p.Category)), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}

// FilterCategory keeps products in the category behind slug. "all", empty and
// unknown slugs keep everything.
func FilterCategory(products []domain.Product, slug string) []domain.Product {
	cat, ok := domain.CategoryForSlug(slug)
	if !ok {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(string(p.Category), string(cat)) {
			out = append(out, p)
		}
	}
	return out
}
