// Package web serves the public landing pages and the signed-in portal.
package web

import (
	"log/slog"
	"time"

	"cphorme/internal/config"
	"cphorme/internal/i18n"
	"cphorme/internal/middleware"
	"cphorme/internal/session"
	"cphorme/internal/telemetry"
	"cphorme/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
)

const (
	honeypotField = "website"
	BlockDuration = time.Hour
)

type Dependencies struct {
	Config        config.Config
	Logger        *slog.Logger
	Telemetry     *telemetry.Telemetry
	Backend       Backend
	Authenticator Authenticator
	Translator    *i18n.Translator
	Validator     *validator.Validator
	// Storage holds the sessions. Nil keeps them in memory.
	Storage fiber.Storage
	// Blocker is shared with the sweeper daemon. Nil creates a private one.
	Blocker *middleware.IPBlocker
	Now     func() time.Time
}

func NewApp(deps Dependencies) *fiber.App {
	cfg := deps.Config

	store := fibersession.New(fibersession.Config{
		Storage:        deps.Storage,
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     cfg.Session.Expiration,
	})
	sessions := session.NewManager(store)
	h := NewPageHandler(deps, sessions)

	app := fiber.New(fiber.Config{
		AppName:      cfg.Telemetry.ServiceName,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: h.ErrorHandler,
	})

	blocker := deps.Blocker
	if blocker == nil {
		blocker = middleware.NewIPBlocker(deps.Logger, BlockDuration)
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New())
	app.Use(telemetry.FiberMiddleware(cfg.Telemetry.ServiceName))
	app.Use(middleware.Logger(deps.Logger))
	app.Use(middleware.SecurityHeaders())
	app.Use(blocker.Middleware())

	app.Get("/healthz", h.Health)

	app.Use(CSRFMiddleware(cfg, h))
	app.Use(middleware.Language(deps.Translator, sessions))
	app.Use(middleware.LoadAccount(sessions))

	app.Get("/lang/:lang", h.SwitchLanguage)

	// Landing
	app.Get("/", h.ShowLandingPage)
	app.Get("/insights", h.ShowInsightsPage)
	app.Get("/insights.csv", h.DownloadInsights)
	app.Get("/login", h.ShowLoginChooser)
	loginLimiter := LoginLimiter(cfg.Auth, h)
	app.Get("/login/doctor", h.ShowLoginPage)
	app.Post("/login/doctor", loginLimiter, h.Login)
	app.Get("/login/organization", h.ShowLoginPage)
	app.Post("/login/organization", loginLimiter, h.Login)
	app.Get("/signup", h.ShowSignupPage)
	app.Post("/signup", blocker.Honeypot(honeypotField), h.Signup)
	app.Post("/logout", h.Logout)

	// Portal
	auth := middleware.RequireSession(sessions)
	app.Get("/dashboard", auth, h.ShowDashboard)

	app.Get("/patients", auth, h.ShowPatients)
	app.Get("/patients/:id", auth, h.ShowPatient)
	app.Get("/patients/:id/edit", auth, h.ShowEditPatient)
	app.Post("/patients/:id/edit", auth, h.SubmitPatient)
	app.Get("/add-patient", auth, h.ShowAddPatient)
	app.Post("/add-patient", auth, h.SubmitPatient)

	app.Get("/reports", auth, h.ShowReports)
	app.Get("/reports/:id", auth, h.ShowReport)
	app.Get("/reports/:id/edit", auth, h.ShowEditReport)
	app.Post("/reports/:id/edit", auth, h.SubmitReport)
	app.Get("/add-report", auth, h.ShowAddReport)
	app.Post("/add-report", auth, h.SubmitReport)

	app.Use(h.NotFound)

	return app
}
