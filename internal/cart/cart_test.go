package cart_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand/internal/cart"
	"secondhand/internal/domain"
	"secondhand/internal/repos"
)

type fakeProducts map[string]domain.Product

func (f fakeProducts) Get(_ context.Context, id string) (domain.Product, error) {
	p, ok := f[id]
	if !ok {
		return domain.Product{}, repos.ErrNotFound
	}
	return p, nil
}

type failingProducts struct{}

func (failingProducts) Get(context.Context, string) (domain.Product, error) {
	return domain.Product{}, errors.New("connection reset")
}

func catalog() fakeProducts {
	return fakeProducts{
		"p1": {ID: "p1", Name: "Water bottle", Price: decimal.RequireFromString("12.99"), Seller: domain.Seller{Name: "greenlife"}},
		"p2": {ID: "p2", Name: "Blocks", Price: decimal.RequireFromString("5.00")},
	}
}

func TestAddItemMergesRepeatedAdds(t *testing.T) {
	s := cart.NewStore(catalog())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.AddItem(ctx, "p1"))
	}
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, cart.StatusPending, items[0].Status)
	assert.Equal(t, "greenlife", items[0].Seller)
}

func TestAddItemUnknownOrFailingLookupLeavesCart(t *testing.T) {
	s := cart.NewStore(catalog())
	require.NoError(t, s.AddItem(context.Background(), "p2"))

	err := s.AddItem(context.Background(), "ghost")
	assert.ErrorIs(t, err, cart.ErrProductNotFound)
	assert.Len(t, s.Items(), 1)

	broken := cart.NewStore(failingProducts{})
	assert.ErrorIs(t, broken.AddItem(context.Background(), "p1"), cart.ErrProductNotFound)
	assert.Empty(t, broken.Items())
}

func TestAddItemExpiredContextIsNotNotFound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	s := cart.NewStore(failingProducts{})
	err := s.AddItem(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, cart.ErrProductNotFound)
	assert.Empty(t, s.Items())
}

func TestConcurrentAddsOfOneProduct(t *testing.T) {
	s := cart.NewStore(catalog())
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(context.Background(), "p1")
		}()
	}
	wg.Wait()

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	s := cart.NewStore(catalog())
	require.NoError(t, s.AddItem(context.Background(), "p1"))
	require.NoError(t, s.AddItem(context.Background(), "p2"))

	s.RemoveItem("p1")
	s.RemoveItem("p1")
	s.RemoveItem("never-added")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	s := cart.NewStore(catalog())
	require.NoError(t, s.AddItem(context.Background(), "p1"))

	assert.ErrorIs(t, s.UpdateQuantity("p1", 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, s.UpdateQuantity("p1", -3), cart.ErrInvalidQuantity)
	assert.Equal(t, 1, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity("p1", 5))
	assert.Equal(t, 5, s.Items()[0].Quantity)
	assert.True(t, s.Items()[0].Subtotal().Equal(decimal.RequireFromString("64.95")))
}

func TestUpdateStatus(t *testing.T) {
	s := cart.NewStore(catalog())
	require.NoError(t, s.AddItem(context.Background(), "p1"))
	require.NoError(t, s.AddItem(context.Background(), "p2"))

	require.NoError(t, s.UpdateStatus("p1", cart.StatusSuccessful))
	assert.ErrorIs(t, s.UpdateStatus("p2", "shipped"), cart.ErrInvalidStatus)

	counts := cart.Counts(s.Items())
	assert.Equal(t, 1, counts[cart.StatusSuccessful])
	assert.Equal(t, 1, counts[cart.StatusPending])
	assert.Equal(t, 0, counts[cart.StatusRejected])
}

func TestItemsIsASnapshot(t *testing.T) {
	s := cart.NewStore(catalog())
	require.NoError(t, s.AddItem(context.Background(), "p1"))

	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestSubscribe(t *testing.T) {
	s := cart.NewStore(catalog())
	var seen [][]cart.Line
	unsubscribe := s.Subscribe(func(lines []cart.Line) {
		// reading the store from a subscriber must not deadlock
		_ = s.Items()
		seen = append(seen, lines)
	})

	require.NoError(t, s.AddItem(context.Background(), "p1"))
	s.Clear()
	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Empty(t, seen[1])

	unsubscribe()
	require.NoError(t, s.AddItem(context.Background(), "p2"))
	assert.Len(t, seen, 2)
}

func TestRegistry(t *testing.T) {
	r := cart.NewRegistry(catalog())

	_, ok := r.Peek("sid-a")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	a := r.Get("sid-a")
	require.NoError(t, a.AddItem(context.Background(), "p1"))
	assert.Same(t, a, r.Get("sid-a"))

	b := r.Get("sid-b")
	assert.Empty(t, b.Items())
	assert.Equal(t, 2, r.Len())

	got, ok := r.Peek("sid-a")
	require.True(t, ok)
	assert.Len(t, got.Items(), 1)
}
