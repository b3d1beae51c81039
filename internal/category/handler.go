package category

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(s *Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log.With("service", "CategoryHandler")}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/categories", h.getCategories)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		h.log.Error("count categories failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to fetch categories")
	}
	return response.OK(c, items)
}
