package middleware

import (
	"cphorme/internal/i18n"
	"cphorme/internal/session"

	"github.com/gofiber/fiber/v2"
)

const langKey = "lang"

// Language picks the request language from the session first, then the
// Accept-Language header, and falls back to the translator default.
func Language(translator *i18n.Translator, sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang, ok := sessions.Language(c)
		if !ok || !translator.Supports(lang) {
			lang, ok = i18n.FromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
			if !ok || !translator.Supports(lang) {
				lang = translator.Default()
			}
		}

		c.Locals(langKey, lang)

		return c.Next()
	}
}

func GetLang(c *fiber.Ctx) i18n.Language {
	if lang, ok := c.Locals(langKey).(i18n.Language); ok {
		return lang
	}
	return i18n.EN
}
