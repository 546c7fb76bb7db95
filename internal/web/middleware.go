package web

import (
	"time"

	"cphorme/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	csrfContextKey = "token"
	csrfFormField  = "csrf_token"
	csrfCookieName = "csrf_"
)

// CSRFMiddleware protects every state-changing form with a double submit
// token. The token is exposed to templates through c.Locals.
func CSRFMiddleware(cfg config.Config, h *PageHandler) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     csrfCookieName,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: true,
		Expiration:     1 * time.Hour,
		KeyGenerator:   utils.UUIDv4,
		ContextKey:     csrfContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			h.logger.WarnContext(c.UserContext(), "CSRF validation failed", "error", err, "path", c.Path(), "ip", c.IP())
			return fiber.NewError(fiber.StatusForbidden, "Invalid or expired form. Please reload the page and try again.")
		},
	})
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}

// LoginLimiter throttles failed sign-in attempts per client address.
// Successful logins redirect and are not counted.
func LoginLimiter(cfg config.AuthConfig, h *PageHandler) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:                    cfg.MaxAttempts,
		Expiration:             cfg.AttemptsTTL,
		SkipSuccessfulRequests: true,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			h.logger.WarnContext(c.UserContext(), "Login attempts exceeded", "ip", c.IP())
			return h.renderLogin(c, fiber.StatusTooManyRequests, c.FormValue("email"), map[string]string{
				"": h.t(c, "error.too_many_attempts"),
			})
		},
	})
}
