package user

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/session"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateRequest struct {
	Name *string `json:"name,omitempty"`
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("service", "UserHandler")}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/auth/register", h.register)
	app.Post("/api/auth/login", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/auth/logout", h.logout)
	app.Post("/api/auth/logout-all", h.logoutAll)
	app.Get("/api/auth/me", h.getProfile)
	app.Patch("/api/auth/me", h.updateProfile)
	app.Delete("/api/auth/me", h.deleteProfile)
}

func (h *Handler) register(c *fiber.Ctx) error {
	payload := new(RegisterInput)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Register(c.UserContext(), *payload)
	if err != nil {
		var invalid *InvalidInputError
		switch {
		case errors.As(err, &invalid):
			return response.Invalid(c, invalid.Fields)
		case errors.Is(err, ErrEmailExists):
			return response.Fail(c, fiber.StatusConflict, "Email already exists")
		}
		h.log.Error("register failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to register")
	}

	return response.Created(c, created)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		return response.Fail(c, fiber.StatusBadRequest, "email and password are required")
	}

	result, err := h.service.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return response.Fail(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		h.log.Error("login failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	return response.OK(c, result)
}

func (h *Handler) logout(c *fiber.Ctx) error {
	sid, err := GetSessionIDFromCtx(c)
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.service.Logout(c.UserContext(), sid); err != nil && !errors.Is(err, session.ErrNotFound) {
		h.log.Error("logout failed", "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to log out")
	}
	return c.JSON(response.API{Success: true, Message: "Logged out"})
}

func (h *Handler) logoutAll(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	n, err := h.service.LogoutAll(c.UserContext(), userID)
	if err != nil {
		h.log.Error("logout-all failed", "user_id", userID, "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to log out")
	}
	return response.OK(c, fiber.Map{"revoked": n})
}

// getProfile returns the user record for the currently authenticated user.
func (h *Handler) getProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		return response.Fail(c, fiber.StatusNotFound, "user not found")
	}

	return response.OK(c, user)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload profileUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return response.Fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if payload.Name == nil || strings.TrimSpace(*payload.Name) == "" {
		return response.Invalid(c, map[string]string{"name": "is required"})
	}

	updated, err := h.service.UpdateName(c.UserContext(), userID, *payload.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "user not found")
		}
		h.log.Error("update profile failed", "user_id", userID, "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to update profile")
	}
	return response.OK(c, updated)
}

func (h *Handler) deleteProfile(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if err := h.service.Delete(c.UserContext(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Fail(c, fiber.StatusNotFound, "user not found")
		}
		h.log.Error("delete user failed", "user_id", userID, "error", err)
		return response.Fail(c, fiber.StatusInternalServerError, "Failed to delete account")
	}
	return c.JSON(response.API{Success: true, Message: "User deleted"})
}
