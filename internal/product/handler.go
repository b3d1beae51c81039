package product

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/validation"
)

type Handler struct {
	service    *Service
	log        *logger.Logger
	allowReset bool
}

// NewHandler wires product routes. allowReset enables POST /dev/reset-products.
func NewHandler(service *Service, log *logger.Logger, allowReset bool) *Handler {
	return &Handler{service: service, log: log.With("service", "ProductHandler"), allowReset: allowReset}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/products", h.getProducts)
	// registered before :id so "search" is not captured as an id
	app.Get("/api/products/search", h.searchProducts)
	app.Get("/api/products/:id", h.getProduct)
	app.Get("/api/products/:id/similar", h.getSimilar)
	app.Get("/api/models/:id", h.getModel)

	app.Post("/dev/reset-products", h.resetProducts)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/products", h.createProduct)
	app.Put("/api/products/:id", h.updateProduct)
	app.Delete("/api/products/:id", h.deleteProduct)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) getProducts(c *fiber.Ctx) error {
	f := Filter{
		Category:  Category(c.Query("category")),
		StyleTags: splitCSV(c.Query("styleTags")),
		Search:    c.Query("search"),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	if f.Category != "" && !f.Category.Valid() {
		return response.Fail(c, fiber.StatusBadRequest, "invalid category")
	}

	products, err := h.service.List(c.UserContext(), f)
	if err != nil {
		h.log.Error("list products failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}
	return response.OK(c, products)
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &v, nil
}

func dimensionBounds(c *fiber.Ctx, prefix string) (*DimensionBounds, error) {
	var b DimensionBounds
	set := false
	for _, d := range []struct {
		name string
		dst  *float64
	}{{"Length", &b.Length}, {"Width", &b.Width}, {"Height", &b.Height}} {
		v, err := optionalFloat(c, prefix+d.name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*d.dst = *v
			set = true
		}
	}
	if !set {
		return nil, nil
	}
	return &b, nil
}

func (h *Handler) searchProducts(c *fiber.Ctx) error {
	f := SearchFilters{
		Query:     c.Query("q", c.Query("query")),
		Category:  Category(c.Query("category")),
		StyleTags: splitCSV(c.Query("styleTags")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	var err error
	if f.MinPrice, err = optionalFloat(c, "minPrice"); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if f.MaxPrice, err = optionalFloat(c, "maxPrice"); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if f.MinDimensions, err = dimensionBounds(c, "min"); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if f.MaxDimensions, err = dimensionBounds(c, "max"); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if errs := validation.Struct(f); len(errs) > 0 {
		return response.Invalid(c, errs)
	}

	res, err := h.service.Search(c.UserContext(), f, c.QueryInt("page", 1), c.QueryInt("pageSize", 20))
	if err != nil {
		if errors.Is(err, ErrInvalidPagination) {
			return response.Fail(c, fiber.StatusBadRequest, err.Error())
		}
		h.log.Error("search products failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to search products")
	}
	return response.OK(c, res)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		h.log.Error("get product failed", "id", c.Params("id"), "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to fetch product")
	}
	return response.OK(c, p)
}

func (h *Handler) getSimilar(c *fiber.Ctx) error {
	products, err := h.service.Similar(c.UserContext(), c.Params("id"), c.QueryInt("limit", 5))
	if err != nil {
		h.log.Error("similar products failed", "id", c.Params("id"), "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to fetch similar products")
	}
	return response.OK(c, products)
}

func (h *Handler) getModel(c *fiber.Ctx) error {
	p, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		h.log.Error("get model url failed", "id", c.Params("id"), "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to fetch model URL")
	}
	return response.OK(c, fiber.Map{"url": p.Model3DURL})
}

// resetProducts replaces the catalog with the posted list, or with the sample
// catalog when the body is not a product array. An empty array clears it.
func (h *Handler) resetProducts(c *fiber.Ctx) error {
	if !h.allowReset {
		return response.Fail(c, fiber.StatusForbidden, "reset not allowed")
	}

	var products []Product
	if err := c.BodyParser(&products); err != nil {
		products = SampleProducts(time.Now())
	}
	for i := range products {
		if errs := validation.Struct(products[i]); len(errs) > 0 {
			return response.Invalid(c, errs)
		}
	}

	if err := h.service.ResetProducts(c.UserContext(), products); err != nil {
		h.log.Error("reset products failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to reset products")
	}
	h.log.Info("catalog reset", "count", len(products))
	return response.OK(c, fiber.Map{"count": len(products)})
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	// validate payload and return all validation errors together
	if errs := validation.Struct(p); len(errs) > 0 {
		return response.Invalid(c, errs)
	}

	created, err := h.service.Create(c.UserContext(), *p)
	if err != nil {
		h.log.Error("create product failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to create product")
	}
	return response.Created(c, created)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	p := new(Product)
	if err := c.BodyParser(p); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}
	if errs := validation.Struct(p); len(errs) > 0 {
		return response.Invalid(c, errs)
	}

	updated, err := h.service.Update(c.UserContext(), c.Params("id"), *p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		h.log.Error("update product failed", "id", c.Params("id"), "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to update product")
	}
	return response.OK(c, updated)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "Product not found")
		}
		h.log.Error("delete product failed", "id", c.Params("id"), "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to delete product")
	}
	return c.JSON(response.API{Success: true, Message: "Product deleted"})
}
