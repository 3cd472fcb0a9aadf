package repos

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"secondhand/internal/domain"
)

// ProductFromDocument is the single ingestion point for stored product documents.
// It accepts both historical field spellings (ageRange.startAge / ageRange.start_age
// and friends) and applies the listing defaults for missing values.
func ProductFromDocument(id string, doc map[string]any) domain.Product {
	age := asMap(first(doc, "ageRange", "age_range"))
	seller := asMap(doc["seller"])

	p := domain.Product{
		ID:             id,
		Name:           asString(doc["name"]),
		Price:          asDecimal(doc["price"]),
		Image:          asString(doc["image"]),
		Description:    asString(doc["description"]),
		Condition:      domain.Condition(asString(doc["condition"])),
		Brand:          asString(doc["brand"]),
		CleaningStatus: domain.CleaningStatus(asString(first(doc, "cleaningStatus", "cleaning_status"))),
		Dimensions:     asString(doc["dimensions"]),
		DealMethod:     asString(first(doc, "dealMethod", "deal_method")),
		Likes:          asInt(doc["likes"]),
		Category:       domain.Category(asString(doc["category"])),
		Status:         domain.ListingStatus(asString(doc["status"])),
		CreatedAt:      asTime(first(doc, "createdAt", "created_at")),
		Version:        int64(asInt(doc["version"])),
		AgeRange: domain.AgeRange{
			StartAge: asInt(first(age, "startAge", "start_age")),
			EndAge:   asInt(first(age, "endAge", "end_age")),
		},
		Seller: domain.Seller{
			Name:     asString(seller["name"]),
			Rating:   asFloat(seller["rating"]),
			Review:   asInt(first(seller, "review", "reviews")),
			Avatar:   strings.Trim(asString(seller["avatar"]), `"`),
			Listings: asStrings(seller["listings"]),
		},
	}
	if p.Condition == "" {
		p.Condition = domain.ConditionLikeNew
	}
	if p.CleaningStatus == "" {
		p.CleaningStatus = domain.CleaningWashed
	}
	if p.Category == "" {
		p.Category = domain.CategoryBabyEssentials
	}
	if p.Status == "" {
		p.Status = domain.StatusPending
	}
	if p.Price.IsNegative() {
		p.Price = decimal.Zero
	}
	if p.Likes < 0 {
		p.Likes = 0
	}
	if p.Seller.Listings == nil {
		p.Seller.Listings = []string{}
	}
	return p
}

// ProductToDocument renders the current field spelling. The id is not part of the
// document.
func ProductToDocument(p domain.Product) map[string]any {
	listings := p.Seller.Listings
	if listings == nil {
		listings = []string{}
	}
	return map[string]any{
		"name":        p.Name,
		"price":       p.Price.InexactFloat64(),
		"image":       p.Image,
		"description": p.Description,
		"condition":   string(p.Condition),
		"ageRange": map[string]any{
			"startAge": p.AgeRange.StartAge,
			"endAge":   p.AgeRange.EndAge,
		},
		"brand":          p.Brand,
		"cleaningStatus": string(p.CleaningStatus),
		"dimensions":     p.Dimensions,
		"dealMethod":     p.DealMethod,
		"seller": map[string]any{
			"name":     p.Seller.Name,
			"avatar":   p.Seller.Avatar,
			"rating":   p.Seller.Rating,
			"review":   p.Seller.Review,
			"listings": listings,
		},
		"likes":     p.Likes,
		"category":  string(p.Category),
		"status":    string(p.Status),
		"createdAt": p.CreatedAt.UTC(),
		"version":   p.Version,
	}
}

// first returns the first non-empty value among keys.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case primitive.M:
		return t
	case primitive.D:
		return t.Map()
	}
	return map[string]any{}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int32, int64:
		return strconv.FormatInt(int64(asInt(t)), 10)
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	case primitive.Decimal128:
		f, _ := strconv.ParseFloat(t.String(), 64)
		return f
	}
	return 0
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}

func asDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int32:
		return decimal.NewFromInt32(t)
	case int64:
		return decimal.NewFromInt(t)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err == nil {
			return d
		}
	case primitive.Decimal128:
		d, err := decimal.NewFromString(t.String())
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}

func asStrings(v any) []string {
	var items []any
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		items = t
	case primitive.A:
		items = t
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := asString(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case primitive.DateTime:
		return t.Time().UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
