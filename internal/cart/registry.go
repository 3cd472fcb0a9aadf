package cart

import "sync"

// Registry owns one Store per browser session.
type Registry struct {
	products Products

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(products Products) *Registry {
	return &Registry{products: products, stores: map[string]*Store{}}
}

// Get returns the session's store, creating it on first use.
func (r *Registry) Get(sid string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sid]
	if !ok {
		s = NewStore(r.products)
		r.stores[sid] = s
	}
	return s
}

// Peek returns the store only if the session already has one.
func (r *Registry) Peek(sid string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sid]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
