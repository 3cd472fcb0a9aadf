// Package cart holds per-session carts in memory.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"secondhand/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidStatus   = errors.New("unknown line status")
)

type LineStatus string

const (
	StatusSuccessful LineStatus = "successful"
	StatusPending    LineStatus = "pending"
	StatusRejected   LineStatus = "rejected"
)

func (s LineStatus) Valid() bool {
	return s == StatusSuccessful || s == StatusPending || s == StatusRejected
}

// Line is a product snapshot plus quantity and status.
type Line struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Condition string          `json:"condition"`
	Seller    string          `json:"seller"`
	Quantity  int             `json:"quantity"`
	Status    LineStatus      `json:"status"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Products is the lookup the cart needs from the product repository.
type Products interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}

// Store is one session's cart. All methods are safe for concurrent use.
type Store struct {
	products Products

	mu    sync.Mutex
	lines []Line
	subs  map[int]func([]Line)
	next  int
}

func NewStore(products Products) *Store {
	return &Store{products: products, subs: map[int]func([]Line){}}
}

// AddItem fetches the product and merges it into the cart. Adding a product that
// is already present bumps its quantity.
func (s *Store) AddItem(ctx context.Context, productID string) error {
	// lookup happens outside the lock
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		zap.L().Warn("cart.add.lookup", zap.String("product_id", productID), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrProductNotFound
	}

	s.mu.Lock()
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity++
	} else {
		s.lines = append(s.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Condition: string(p.Condition),
			Seller:    p.Seller.Name,
			Quantity:  1,
			Status:    StatusPending,
		})
	}
	s.notifyLocked()
	return nil
}

// RemoveItem drops the line. Unknown ids are ignored.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	if i := s.index(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	s.notifyLocked()
}

func (s *Store) UpdateQuantity(productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	s.mu.Lock()
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = qty
	}
	s.notifyLocked()
	return nil
}

func (s *Store) UpdateStatus(productID string, status LineStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	s.mu.Lock()
	if i := s.index(productID); i >= 0 {
		s.lines[i].Status = status
	}
	s.notifyLocked()
	return nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.notifyLocked()
}

// Items returns a copy in insertion order.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive a snapshot after every mutation and returns
// a func that removes it.
func (s *Store) Subscribe(fn func([]Line)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) index(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// notifyLocked releases the lock and then calls subscribers, so a subscriber may
// read the store again.
func (s *Store) notifyLocked() {
	snap := s.snapshot()
	fns := make([]func([]Line), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Counts tallies lines per status.
func Counts(lines []Line) map[LineStatus]int {
	out := map[LineStatus]int{StatusSuccessful: 0, StatusPending: 0, StatusRejected: 0}
	for _, l := range lines {
		out[l.Status]++
	}
	return out
}
