package product

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Repository interface {
	// List returns products matching f, newest first.
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	// Reset replaces all products with the provided list (used for dev / seeding)
	Reset(ctx context.Context, products []Product) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{storage: make([]Product, 0, len(seed))}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		r.storage = append(r.storage, p)
	}
	return r
}

func (r *InMemoryRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	matched := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if matches(p, f) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	start := f.offset()
	if start >= len(matched) {
		return []Product{}, nil
	}
	end := start + f.limit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func matches(p Product, f Filter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if len(f.StyleTags) > 0 && !p.HasTag(f.StyleTags...) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id string, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p.ID = id
			p.CreatedAt = r.storage[i].CreatedAt
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Reset replaces the whole in-memory storage with the provided products.
func (r *InMemoryRepository) Reset(ctx context.Context, products []Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage = make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		r.storage = append(r.storage, p)
	}
	return nil
}
