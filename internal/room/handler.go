package room

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/validation"
)

type Handler struct {
	analyzer *Analyzer
	store    *Store
	log      *logger.Logger
}

type analyzeRequest struct {
	PhotoURL string `json:"photoUrl"`
}

func NewHandler(analyzer *Analyzer, store *Store, log *logger.Logger) *Handler {
	return &Handler{analyzer: analyzer, store: store, log: log.With("service", "RoomHandler")}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/room/analyze", h.analyze)
	app.Post("/api/room/upload", h.upload)
	app.Post("/api/tools/tile-calculator", h.calculateTiles)
}

func (h *Handler) analyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.PhotoURL) == "" {
		return response.Fail(c, fiber.StatusBadRequest, "Photo URL is required")
	}

	analysis, err := h.analyzer.Analyze(c.UserContext(), req.PhotoURL)
	if err != nil {
		h.log.Error("room analysis failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to analyze room")
	}
	return response.OK(c, analysis)
}

func (h *Handler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("photo")
	if err != nil || file == nil {
		return response.Fail(c, fiber.StatusBadRequest, "Photo file is required")
	}
	contentType := file.Header.Get("Content-Type")
	if err := ValidateImage(file.Filename, contentType); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, err.Error())
	}

	f, err := file.Open()
	if err != nil {
		h.log.Error("open upload failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to upload room photo")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.log.Error("read upload failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to upload room photo")
	}

	path, err := h.store.Save(file.Filename, contentType, data)
	if err != nil {
		var invalid *InvalidImageError
		if errors.As(err, &invalid) {
			return response.Fail(c, fiber.StatusBadRequest, err.Error())
		}
		h.log.Error("save upload failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to upload room photo")
	}
	h.log.Info("room photo uploaded", "path", path, "bytes", len(data))
	return response.OK(c, fiber.Map{"url": c.BaseURL() + path})
}

func (h *Handler) calculateTiles(c *fiber.Ctx) error {
	var in TileInput
	if err := c.BodyParser(&in); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validation.Struct(in); len(errs) > 0 {
		return response.Invalid(c, errs)
	}

	calc, err := CalculateTiles(in)
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "All dimensions are required")
	}
	return response.OK(c, calc)
}
