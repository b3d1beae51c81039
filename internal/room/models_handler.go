package room

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
)

// ModelHandler serves GLB models from a ModelStore.
type ModelHandler struct {
	store *ModelStore
	log   *logger.Logger
}

func NewModelHandler(store *ModelStore, log *logger.Logger) *ModelHandler {
	return &ModelHandler{store: store, log: log.With("service", "ModelHandler")}
}

func (h *ModelHandler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/models/glb/:container", h.list)
	app.Get("/api/models/glb/:container/:filename", h.download)
	app.Get("/api/models/glb/:container/:filename/url", h.url)
}

func (h *ModelHandler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/models/glb/:container/:filename", h.upload)
}

// modelError maps store errors to a status and message. ok is false for
// unexpected errors.
func modelError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ErrNotGLB):
		return fiber.StatusBadRequest, "File must be a .glb file", true
	case errors.Is(err, ErrInvalidModelMIME):
		return fiber.StatusBadRequest, "Invalid MIME type for GLB file", true
	case errors.Is(err, ErrInvalidModelPath):
		return fiber.StatusBadRequest, "Invalid container or file name", true
	case errors.Is(err, ErrModelNotFound):
		return fiber.StatusNotFound, "GLB file not found", true
	}
	return fiber.StatusInternalServerError, "", false
}

func (h *ModelHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	status, msg, ok := modelError(err)
	if !ok {
		h.log.Error(fallback, "container", c.Params("container"), "filename", c.Params("filename"), "error", err)
		msg = fallback
	}
	return response.Fail(c, status, msg)
}

func (h *ModelHandler) list(c *fiber.Ctx) error {
	names, err := h.store.List(c.Params("container"), c.Query("prefix"))
	if err != nil {
		return h.fail(c, err, "Failed to list GLB files")
	}
	return response.OK(c, names)
}

func (h *ModelHandler) download(c *fiber.Ctx) error {
	filename := c.Params("filename")
	data, err := h.store.Open(c.Params("container"), filename)
	if err != nil {
		return h.fail(c, err, "Failed to retrieve GLB file")
	}
	c.Set(fiber.HeaderContentType, "model/gltf-binary")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func (h *ModelHandler) url(c *fiber.Ctx) error {
	path, err := h.store.URL(c.Params("container"), c.Params("filename"))
	if err != nil {
		return h.fail(c, err, "Failed to get GLB file URL")
	}
	return response.OK(c, fiber.Map{"url": c.BaseURL() + path})
}

func (h *ModelHandler) upload(c *fiber.Ctx) error {
	container, filename := c.Params("container"), c.Params("filename")
	if err := ValidateModel(filename, ""); err != nil {
		return h.fail(c, err, "Failed to upload GLB file")
	}
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		return response.Fail(c, fiber.StatusBadRequest, "GLB file is required")
	}
	if err := ValidateModel(filename, file.Header.Get("Content-Type")); err != nil {
		return h.fail(c, err, "Failed to upload GLB file")
	}

	f, err := file.Open()
	if err != nil {
		return h.fail(c, err, "Failed to upload GLB file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return h.fail(c, err, "Failed to upload GLB file")
	}

	path, err := h.store.Save(container, filename, data)
	if err != nil {
		return h.fail(c, err, "Failed to upload GLB file")
	}
	h.log.Info("model uploaded", "path", path, "bytes", len(data))
	return response.OK(c, fiber.Map{"url": c.BaseURL() + path})
}
