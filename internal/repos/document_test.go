package repos_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"secondhand/internal/domain"
	"secondhand/internal/repos"
)

func TestProductFromDocument_Defaults(t *testing.T) {
	p := repos.ProductFromDocument("x", map[string]any{"name": "Mystery box"})

	assert.Equal(t, "x", p.ID)
	assert.Equal(t, domain.ConditionLikeNew, p.Condition)
	assert.Equal(t, domain.CleaningWashed, p.CleaningStatus)
	assert.Equal(t, domain.CategoryBabyEssentials, p.Category)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.True(t, p.Price.IsZero())
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, "", p.Brand)
	assert.NotNil(t, p.Seller.Listings)
}

func TestProductFromDocument_CurrentAndLegacySpellings(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	current := repos.ProductFromDocument("a", map[string]any{
		"ageRange":       map[string]any{"startAge": 1.0, "endAge": 3.0},
		"cleaningStatus": "sanitised",
		"createdAt":      created,
	})
	legacy := repos.ProductFromDocument("b", primitive.M{
		"age_range":       primitive.D{{Key: "start_age", Value: int32(1)}, {Key: "end_age", Value: int32(3)}},
		"cleaning_status": "sanitised",
		"created_at":      primitive.NewDateTimeFromTime(created),
	})

	assert.Equal(t, current.AgeRange, legacy.AgeRange)
	assert.Equal(t, current.CleaningStatus, legacy.CleaningStatus)
	assert.True(t, current.CreatedAt.Equal(legacy.CreatedAt))
}

func TestProductFromDocument_ClampsAndStrips(t *testing.T) {
	p := repos.ProductFromDocument("c", map[string]any{
		"price":  -4.0,
		"likes":  -2,
		"seller": map[string]any{"name": "miketan", "avatar": `"https://cdn.example/a.png"`, "listings": []any{"l1", "", "l2"}},
	})
	assert.True(t, p.Price.Equal(decimal.Zero))
	assert.Equal(t, 0, p.Likes)
	assert.Equal(t, "https://cdn.example/a.png", p.Seller.Avatar)
	assert.Equal(t, []string{"l1", "l2"}, p.Seller.Listings)
}

func TestProductToDocument_RoundTrip(t *testing.T) {
	in := domain.Product{
		Name:           "Wooden train set",
		Price:          decimal.RequireFromString("19.90"),
		Condition:      domain.ConditionLightlyUsed,
		AgeRange:       domain.AgeRange{StartAge: 3, EndAge: 8},
		CleaningStatus: domain.CleaningSanitised,
		Category:       domain.CategoryToys,
		Seller:         domain.Seller{Name: "miketan", Rating: 4.5, Review: 12},
		Likes:          4,
		Status:         domain.StatusActive,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:        7,
	}
	out := repos.ProductFromDocument("id-1", repos.ProductToDocument(in))
	in.ID = "id-1"
	in.Seller.Listings = []string{}

	assert.True(t, in.Price.Equal(out.Price))
	out.Price = in.Price
	assert.Equal(t, in, out)
}
