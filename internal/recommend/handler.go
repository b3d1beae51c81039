package recommend

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/validation"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("service", "RecommendHandler")}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/recommend", h.recommend)
}

func (h *Handler) recommend(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validation.Struct(req); len(errs) > 0 {
		return response.Invalid(c, errs)
	}

	recs, err := h.service.Recommend(c.UserContext(), req)
	if err != nil {
		h.log.Error("recommendation failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to get recommendations")
	}
	return response.OK(c, recs)
}
