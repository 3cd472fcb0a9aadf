package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"secondhand/internal/domain"
	"secondhand/internal/repos"
	"secondhand/internal/storage"
	"secondhand/internal/validate"
)

// ListingInput is the listing form.
type ListingInput struct {
	Name           string  `json:"name" form:"name" validate:"required,max=120"`
	Price          float64 `json:"price" form:"price" validate:"gte=0"`
	Description    string  `json:"description" form:"description" validate:"max=2000"`
	Condition      string  `json:"condition" form:"condition" validate:"required,condition"`
	Category       string  `json:"category" form:"category" validate:"required,category"`
	CleaningStatus string  `json:"cleaning_status" form:"cleaning_status" validate:"omitempty,cleaning"`
	StartAge       int     `json:"start_age" form:"start_age" validate:"gte=0"`
	EndAge         int     `json:"end_age" form:"end_age" validate:"gte=0,gtefield=StartAge"`
	Brand          string  `json:"brand" form:"brand" validate:"max=80"`
	Dimensions     string  `json:"dimensions" form:"dimensions" validate:"max=80"`
	DealMethod     string  `json:"deal_method" form:"deal_method" validate:"max=120"`
	SellerName     string  `json:"seller_name" form:"seller_name" validate:"required,max=40"`
	SellerAvatar   string  `json:"seller_avatar" form:"seller_avatar" validate:"max=300"`
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ListingService struct {
	Prods repos.ProductStore
	Media storage.Store
	Now   func() time.Time
}

func NewListingService(prods repos.ProductStore, media storage.Store) *ListingService {
	return &ListingService{Prods: prods, Media: media, Now: time.Now}
}

// Create validates the form, uploads the image if one is given and stores a new
// pending listing with no likes.
func (s *ListingService) Create(ctx context.Context, in ListingInput, img *ImageUpload) (domain.Product, error) {
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		Name:           strings.TrimSpace(in.Name),
		Price:          decimal.NewFromFloat(in.Price),
		Description:    strings.TrimSpace(in.Description),
		Condition:      domain.Condition(in.Condition),
		AgeRange:       domain.AgeRange{StartAge: in.StartAge, EndAge: in.EndAge},
		Brand:          strings.TrimSpace(in.Brand),
		CleaningStatus: domain.CleaningStatus(in.CleaningStatus),
		Dimensions:     strings.TrimSpace(in.Dimensions),
		DealMethod:     strings.TrimSpace(in.DealMethod),
		Category:       canonicalCategory(in.Category),
		Seller: domain.Seller{
			Name:     strings.TrimSpace(in.SellerName),
			Avatar:   strings.Trim(in.SellerAvatar, `"`),
			Listings: []string{},
		},
		Likes:     0,
		Status:    domain.StatusPending,
		CreatedAt: s.Now().UTC(),
	}
	if p.CleaningStatus == "" {
		p.CleaningStatus = domain.CleaningWashed
	}

	if img != nil && s.Media != nil {
		key := storage.ListingKey(img.Filename, s.Now())
		url, err := s.Media.Put(ctx, key, img.ContentType, img.Body)
		if err != nil {
			return domain.Product{}, fmt.Errorf("upload image: %w", err)
		}
		p.Image = url
	}

	id, err := s.Prods.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = id
	p.Version = 1
	return p, nil
}

func (s *ListingService) UpdateStatus(ctx context.Context, id string, status domain.ListingStatus, ifVersion int64) error {
	return s.Prods.UpdateStatus(ctx, id, status, ifVersion)
}

func (s *ListingService) Copy(ctx context.Context, id string) (string, error) {
	return s.Prods.Copy(ctx, id)
}

func canonicalCategory(s string) domain.Category {
	for _, c := range domain.Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return domain.Category(s)
}
