package middleware

import (
	"cphorme/internal/auth"
	"cphorme/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	accountKey = "account"
	LoginPath  = "/login/doctor"
)

// RequireSession lets signed-in requests through and sends everyone else to
// the doctor login.
func RequireSession(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, ok := sessions.Current(c)
		if !ok {
			return c.Redirect(LoginPath, fiber.StatusSeeOther)
		}

		c.Locals(accountKey, account)

		return c.Next()
	}
}

// LoadAccount exposes the signed-in account, if any, without requiring one.
func LoadAccount(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if account, ok := sessions.Current(c); ok {
			c.Locals(accountKey, account)
		}
		return c.Next()
	}
}

func GetAccount(c *fiber.Ctx) (auth.Account, bool) {
	account, ok := c.Locals(accountKey).(auth.Account)
	return account, ok
}
