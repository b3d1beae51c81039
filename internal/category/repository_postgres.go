package category

import (
	"context"
	"database/sql"

	"github.com/wichananm65/visioneer-backend/internal/product"
)

const countByCategoryQuery = `SELECT category, COUNT(*) FROM product GROUP BY category`

// PostgresRepository implements Repository with a GROUP BY over the product table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Counts(ctx context.Context) (map[product.Category]int, error) {
	rows, err := r.db.QueryContext(ctx, countByCategoryQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[product.Category]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, err
		}
		out[product.Category(name)] = count
	}
	return out, rows.Err()
}
