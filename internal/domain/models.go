package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Condition string

const (
	ConditionBrandNew    Condition = "brand new"
	ConditionLikeNew     Condition = "like new"
	ConditionLightlyUsed Condition = "lightly used"
	ConditionWellUsed    Condition = "well used"
	ConditionHeavilyUsed Condition = "heavily used"
)

var Conditions = []Condition{
	ConditionBrandNew, ConditionLikeNew, ConditionLightlyUsed, ConditionWellUsed, ConditionHeavilyUsed,
}

func (c Condition) Valid() bool {
	for _, x := range Conditions {
		if c == x {
			return true
		}
	}
	return false
}

type CleaningStatus string

const (
	CleaningWashed    CleaningStatus = "washed"
	CleaningSanitised CleaningStatus = "sanitised"
)

func (s CleaningStatus) Valid() bool { return s == CleaningWashed || s == CleaningSanitised }

type Category string

const (
	CategoryBabyEssentials Category = "Baby essentials"
	CategoryClothes        Category = "Clothes"
	CategoryToys           Category = "Toys"
	CategoryFurniture      Category = "Furniture"
	CategoryLearning       Category = "Learning"
	CategorySports         Category = "Sports"
)

var Categories = []Category{
	CategoryBabyEssentials, CategoryClothes, CategoryToys, CategoryFurniture, CategoryLearning, CategorySports,
}

func (c Category) Valid() bool {
	for _, x := range Categories {
		if strings.EqualFold(string(c), string(x)) {
			return true
		}
	}
	return false
}

// categorySlugs maps the storefront tab ids to stored category values.
var categorySlugs = map[string]Category{
	"baby":      CategoryBabyEssentials,
	"clothes":   CategoryClothes,
	"toys":      CategoryToys,
	"furniture": CategoryFurniture,
	"learning":  CategoryLearning,
	"sports":    CategorySports,
}

// CategoryForSlug resolves a tab id such as "toys". ok is false for "all", empty
// or unknown slugs, which callers treat as "no filter".
func CategoryForSlug(slug string) (Category, bool) {
	c, ok := categorySlugs[strings.ToLower(strings.TrimSpace(slug))]
	return c, ok
}

type ListingStatus string

const (
	StatusPending ListingStatus = "pending"
	StatusActive  ListingStatus = "active"
	StatusSold    ListingStatus = "sold"
	StatusDraft   ListingStatus = "draft"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSold, StatusDraft:
		return true
	}
	return false
}

type AgeRange struct {
	StartAge int `json:"start_age"`
	EndAge   int `json:"end_age"`
}

type Seller struct {
	Name     string   `json:"name"`
	Rating   float64  `json:"rating"`
	Review   int      `json:"review"`
	Avatar   string   `json:"avatar"`
	Listings []string `json:"listings"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image"`
	Description    string          `json:"description"`
	Condition      Condition       `json:"condition"`
	AgeRange       AgeRange        `json:"age_range"`
	Brand          string          `json:"brand"`
	CleaningStatus CleaningStatus  `json:"cleaning_status"`
	Dimensions     string          `json:"dimensions"`
	DealMethod     string          `json:"deal_method"`
	Seller         Seller          `json:"seller"`
	Likes          int             `json:"likes"`
	Category       Category        `json:"category"`
	Status         ListingStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	Version        int64           `json:"version"`
}

// ChargeRecord is the local ledger row for one checkout attempt.
type ChargeRecord struct {
	ID          string          `db:"id" json:"id"`
	SessionID   string          `db:"session_id" json:"-"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	LinesJSON   string          `db:"lines_json" json:"-"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

// Lines decodes the stored line items.
func (r ChargeRecord) Lines() ([]ChargeLine, error) {
	var out []ChargeLine
	if r.LinesJSON == "" {
		return out, nil
	}
	err := json.Unmarshal([]byte(r.LinesJSON), &out)
	return out, err
}

// ChargeLine is one product/quantity pair of a charge.
type ChargeLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

const (
	ChargePending    = "pending"
	ChargeSuccessful = "successful"
	ChargeRejected   = "rejected"
)
