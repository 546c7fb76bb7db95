package web

import (
	"cphorme/internal/i18n"
	"cphorme/internal/insights"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
)

func (h *PageHandler) ShowLandingPage(c *fiber.Ctx) error {
	return render(c, views.Landing(views.LandingProps{
		Layout: h.layout(c, "app.tagline"),
	}))
}

// ShowInsightsPage lists the regional figures, ordered by the disease given
// in ?disease= (malaria by default).
func (h *PageHandler) ShowInsightsPage(c *fiber.Ctx) error {
	disease, ok := insights.ParseDisease(c.Query("disease"))
	if !ok {
		disease = insights.Malaria
	}

	return render(c, views.Insights(views.InsightsProps{
		Layout:   h.layout(c, "insights.title"),
		Summary:  h.dataset.Summarize(),
		States:   h.dataset.SortedBy(disease),
		Trend:    h.dataset.MalariaTrend,
		Disease:  disease,
		Diseases: insights.Diseases,
	}))
}

func (h *PageHandler) DownloadInsights(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="regional-insights.csv"`)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return h.dataset.WriteCSV(c.Response().BodyWriter())
}

// SwitchLanguage stores the chosen language and sends the client back to
// where it came from.
func (h *PageHandler) SwitchLanguage(c *fiber.Ctx) error {
	lang, err := i18n.ParseLanguage(c.Params("lang"))
	if err == nil && h.translator.Supports(lang) {
		if err := h.sessions.SetLanguage(c, lang); err != nil {
			return err
		}
	}

	return c.Redirect(safeReferer(c), fiber.StatusSeeOther)
}

// safeReferer only follows same-origin referers.
func safeReferer(c *fiber.Ctx) string {
	referer := c.Get(fiber.HeaderReferer)
	prefix := c.BaseURL() + "/"
	if len(referer) >= len(prefix) && referer[:len(prefix)] == prefix {
		return referer
	}
	return "/"
}
