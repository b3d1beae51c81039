package category

import (
	"context"

	"github.com/wichananm65/visioneer-backend/internal/product"
)

// Repository counts products per category. Categories with no products may be
// absent from the result.
type Repository interface {
	Counts(ctx context.Context) (map[product.Category]int, error)
}

// Catalog is the slice of product.Service that SnapshotRepository needs.
type Catalog interface {
	Snapshot(ctx context.Context) ([]product.Product, error)
}

// SnapshotRepository counts over the catalog snapshot. Used with the memory
// and Mongo drivers.
type SnapshotRepository struct {
	catalog Catalog
}

func NewSnapshotRepository(c Catalog) *SnapshotRepository {
	return &SnapshotRepository{catalog: c}
}

func (r *SnapshotRepository) Counts(ctx context.Context) (map[product.Category]int, error) {
	products, err := r.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[product.Category]int)
	for _, p := range products {
		out[p.Category]++
	}
	return out, nil
}
