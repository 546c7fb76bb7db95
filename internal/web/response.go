package web

import (
	"context"
	"errors"
	"time"

	"cphorme/internal/backend"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthTimeout = 3 * time.Second

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Backend   string       `json:"backend"`
	Timestamp string       `json:"timestamp"`
	Error     string       `json:"error,omitempty"`
}

// Health reports whether the remote API answers.
func (h *PageHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(h.ctx(c), healthTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Backend:   "reachable",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if err := h.backend.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Backend health check failed", "error", err)
		resp.Status = HealthStatusUnhealthy
		resp.Backend = "unreachable"
		resp.Error = backend.UserMessage(err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// ErrorHandler renders the error page for anything a handler did not deal
// with itself.
func (h *PageHandler) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := ""

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code == fiber.StatusNotFound {
		return h.NotFound(c)
	}

	if code >= fiber.StatusInternalServerError {
		h.logger.ErrorContext(c.UserContext(), "Unhandled error", "error", err, "path", c.Path())
		message = ""
	}

	c.Response().ResetBody()
	return renderStatus(c, code, views.Error(views.ErrorProps{
		Layout:  h.layout(c, "error.title"),
		Code:    code,
		Message: message,
	}))
}

func (h *PageHandler) NotFound(c *fiber.Ctx) error {
	return renderStatus(c, fiber.StatusNotFound, views.NotFound(views.NotFoundProps{
		Layout: h.layout(c, "notfound.message"),
	}))
}
