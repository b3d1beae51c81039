package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// API is the envelope every /api endpoint responds with.
type API struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes a 200 envelope carrying data.
func OK(c *fiber.Ctx, data any) error {
	return c.JSON(API{Success: true, Data: data})
}

// Created writes a 201 envelope carrying data.
func Created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(API{Success: true, Data: data})
}

// Fail writes an error envelope with the given status.
func Fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(API{Success: false, Error: msg})
}

// Invalid writes a 400 envelope listing every field problem.
func Invalid(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "validation failed",
		"errors":  fields,
	})
}

// ErrorHandler is installed as fiber's error handler so that unmatched routes
// and panics recovered by middleware still answer with the envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		msg = fe.Message
	}
	return Fail(c, status, msg)
}
