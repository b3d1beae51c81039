package category

import (
	"context"

	"github.com/wichananm65/visioneer-backend/internal/product"
)

// Service provides business logic for categories.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns every known category in display order with its product count.
// Rows stored under an unknown category are ignored.
func (s *Service) List(ctx context.Context) ([]CategoryItem, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]CategoryItem, 0, len(product.Categories))
	for _, c := range product.Categories {
		items = append(items, CategoryItem{Name: c, Count: counts[c]})
	}
	return items, nil
}
