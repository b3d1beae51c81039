package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	createProductTableQuery = `
		CREATE TABLE IF NOT EXISTS product (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			price        DOUBLE PRECISION NOT NULL DEFAULT 0,
			category     TEXT NOT NULL,
			style_tags   TEXT[] NOT NULL DEFAULT '{}',
			dimensions   JSONB NOT NULL DEFAULT '{}',
			images       TEXT[] NOT NULL DEFAULT '{}',
			model_3d_url TEXT NOT NULL DEFAULT '',
			store_links  JSONB NOT NULL DEFAULT '[]',
			description  TEXT,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	createProductIndexQuery = `CREATE INDEX IF NOT EXISTS product_created_at_idx ON product (created_at DESC)`

	selectProductColumns = `id, name, price, category, style_tags, dimensions, images, model_3d_url, store_links, description, created_at, updated_at`

	getProductByIDQuery = `SELECT ` + selectProductColumns + ` FROM product WHERE id = $1`
	insertProductQuery  = `
		INSERT INTO product (id, name, price, category, style_tags, dimensions, images, model_3d_url, store_links, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	updateProductQuery = `
		UPDATE product
		SET name = $1,
			price = $2,
			category = $3,
			style_tags = $4,
			dimensions = $5,
			images = $6,
			model_3d_url = $7,
			store_links = $8,
			description = $9,
			updated_at = $10
		WHERE id = $11
	`
	deleteProductQuery = `DELETE FROM product WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the product table and its index when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProductTableQuery); err != nil {
		return fmt.Errorf("create product table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createProductIndexQuery); err != nil {
		return fmt.Errorf("create product index: %w", err)
	}
	return nil
}

// buildListQuery renders the filtered SELECT with positional args.
func buildListQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, string(f.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(f.StyleTags) > 0 {
		args = append(args, pq.Array(f.StyleTags))
		where = append(where, fmt.Sprintf("style_tags && $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", n, n))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectProductColumns)
	b.WriteString(" FROM product")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, f.limit(), f.offset())
	fmt.Fprintf(&b, " ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Product, error) {
	q, args := buildListQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// productArgs returns the column values for insertProductQuery after id.
func productArgs(p Product) ([]any, error) {
	dims, err := json.Marshal(p.Dimensions)
	if err != nil {
		return nil, err
	}
	links := p.StoreLinks
	if links == nil {
		links = []StoreLink{}
	}
	storeLinks, err := json.Marshal(links)
	if err != nil {
		return nil, err
	}
	return []any{
		p.Name,
		p.Price,
		string(p.Category),
		pq.Array(nonNil(p.StyleTags)),
		dims,
		pq.Array(nonNil(p.Images)),
		p.Model3DURL,
		storeLinks,
		nullString(p.Description),
	}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := insertProduct(ctx, r.db, p); err != nil {
		return Product{}, err
	}
	return p, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertProduct(ctx context.Context, db execer, p Product) error {
	cols, err := productArgs(p)
	if err != nil {
		return err
	}
	args := append([]any{p.ID}, cols...)
	args = append(args, p.CreatedAt, p.UpdatedAt)
	_, err = db.ExecContext(ctx, insertProductQuery, args...)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p Product) (Product, error) {
	cols, err := productArgs(p)
	if err != nil {
		return Product{}, err
	}
	args := append(cols, p.UpdatedAt, id)
	result, err := r.db.ExecContext(ctx, updateProductQuery, args...)
	if err != nil {
		return Product{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		return Product{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset deletes all products and inserts the provided list in a single transaction.
func (r *PostgresRepository) Reset(ctx context.Context, products []Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product`); err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if err := insertProduct(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(scanner rowScanner) (Product, error) {
	p := Product{}
	var (
		category    string
		dims        []byte
		storeLinks  []byte
		description sql.NullString
	)
	if err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&category,
		pq.Array(&p.StyleTags),
		&dims,
		pq.Array(&p.Images),
		&p.Model3DURL,
		&storeLinks,
		&description,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	p.Category = Category(category)
	if len(dims) > 0 {
		if err := json.Unmarshal(dims, &p.Dimensions); err != nil {
			return Product{}, fmt.Errorf("decode dimensions for %s: %w", p.ID, err)
		}
	}
	if len(storeLinks) > 0 {
		if err := json.Unmarshal(storeLinks, &p.StoreLinks); err != nil {
			return Product{}, fmt.Errorf("decode store links for %s: %w", p.ID, err)
		}
	}
	if description.Valid {
		p.Description = description.String
	}
	if p.StyleTags == nil {
		p.StyleTags = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
