package server

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/metrics"
)

// checkMiddleware logs every request and records its latency. The route
// label uses the matched pattern so ids do not explode metric cardinality.
func checkMiddleware(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the status before it is recorded
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		kv := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		}
		switch {
		case status >= 500:
			log.Error("request", kv...)
		case status >= 400:
			log.Warn("request", kv...)
		default:
			log.Debug("request", kv...)
		}
		return nil
	}
}
