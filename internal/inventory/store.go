package inventory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// UpdateFunc derives the next state of a product from its current state.
type UpdateFunc func(current Product) (Product, error)

// Store is the product catalog collaborator. Update must be atomic per
// product: no other Update on the same id may interleave between the read
// handed to fn and the write of its result.
type Store interface {
	Create(ctx context.Context, p Product) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (Product, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps products in process memory. List returns products in
// insertion order.
type MemoryStore struct {
	mu       sync.Mutex
	order    []string
	products map[string]Product
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]Product)}
}

// Create assigns an ID and stores p.
func (s *MemoryStore) Create(ctx context.Context, p Product) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	s.products[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

// List returns a snapshot of all products.
func (s *MemoryStore) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out, nil
}

// Get returns one product or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Update runs fn under the store lock and saves its result.
func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	next, err := fn(current)
	if err != nil {
		return Product{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	s.products[id] = next
	return next, nil
}

// Delete removes a product or returns ErrNotFound.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}
