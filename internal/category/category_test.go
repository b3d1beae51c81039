package category

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/product"
)

func TestGetCategories_CountsFromSnapshot(t *testing.T) {
	catalog := product.NewService(product.NewInMemoryRepository(product.SampleProducts(time.Now())))
	h := NewHandler(NewService(NewSnapshotRepository(catalog)), logger.Nop())
	app := fiber.New()
	h.RegisterPublicRoutes(app)

	res, err := app.Test(httptest.NewRequest("GET", "/api/categories", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("expected 200 got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	for _, want := range []string{
		`{"name":"furniture","count":4}`,
		`{"name":"tiles","count":2}`,
		`{"name":"decor","count":2}`,
		`{"name":"paint","count":0}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestPostgresCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT category, COUNT\\(\\*\\) FROM product GROUP BY category").
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).AddRow("tiles", 3).AddRow("legacy", 1))

	items, err := NewService(NewPostgresRepository(db)).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != len(product.Categories) {
		t.Fatalf("expected one item per category, got %d", len(items))
	}
	if items[1].Name != product.CategoryTiles || items[1].Count != 3 {
		t.Fatalf("unexpected tiles item %+v", items[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCounts_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery("FROM product").WillReturnError(errors.New("relation does not exist"))

	h := NewHandler(NewService(NewPostgresRepository(db)), logger.Nop())
	app := fiber.New()
	h.RegisterPublicRoutes(app)

	res, _ := app.Test(httptest.NewRequest("GET", "/api/categories", nil))
	if res.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", res.StatusCode)
	}
}
