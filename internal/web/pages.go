package web

import (
	"context"
	"log/slog"
	"time"

	"cphorme/internal/auth"
	"cphorme/internal/backend"
	"cphorme/internal/i18n"
	"cphorme/internal/insights"
	"cphorme/internal/medical"
	"cphorme/internal/middleware"
	"cphorme/internal/session"
	"cphorme/internal/telemetry"
	"cphorme/internal/validator"
	"cphorme/internal/web/views"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

// Backend is the part of the remote API the pages use.
type Backend interface {
	ListPatients(ctx context.Context) ([]medical.Patient, error)
	GetPatient(ctx context.Context, id string) (medical.Patient, error)
	CreatePatient(ctx context.Context, payload medical.PatientPayload) (medical.Patient, error)
	UpdatePatient(ctx context.Context, id string, payload medical.PatientPayload) (medical.Patient, error)
	ListReports(ctx context.Context) ([]medical.Report, error)
	GetReport(ctx context.Context, id string) (medical.Report, error)
	CreateReport(ctx context.Context, payload medical.ReportPayload) (medical.Report, error)
	UpdateReport(ctx context.Context, id string, payload medical.ReportPayload) (medical.Report, error)
	PatientName(ctx context.Context, id string) (string, error)
	DoctorName(ctx context.Context, id string) (string, error)
	Signup(ctx context.Context, req backend.SignupRequest) (backend.SignupResult, error)
	Ping(ctx context.Context) error
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Account, error)
}

type PageHandler struct {
	logger     *slog.Logger
	backend    Backend
	auth       Authenticator
	sessions   *session.Manager
	translator *i18n.Translator
	validator  *validator.Validator
	telemetry  *telemetry.Telemetry
	dataset    insights.Dataset
	now        func() time.Time
}

func NewPageHandler(deps Dependencies, sessions *session.Manager) *PageHandler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &PageHandler{
		logger:     deps.Logger,
		backend:    deps.Backend,
		auth:       deps.Authenticator,
		sessions:   sessions,
		translator: deps.Translator,
		validator:  deps.Validator,
		telemetry:  deps.Telemetry,
		dataset:    insights.Sudan(),
		now:        now,
	}
}

// layout builds the shared page props and consumes the pending flash.
func (h *PageHandler) layout(c *fiber.Ctx, titleKey string) views.LayoutProps {
	lang := middleware.GetLang(c)
	account, signedIn := middleware.GetAccount(c)

	props := views.LayoutProps{
		Title:      h.translator.T(lang, titleKey),
		Lang:       lang,
		Languages:  h.translator.GetAvailableLanguages(),
		Translator: h.translator,
		CSRFToken:  csrfToken(c),
		Account:    account,
		SignedIn:   signedIn,
		Path:       c.Path(),
	}
	if flash, ok := h.sessions.TakeFlash(c); ok {
		props.Flash = &flash
	}
	return props
}

func (h *PageHandler) t(c *fiber.Ctx, key string) string {
	return h.translator.T(middleware.GetLang(c), key)
}

func (h *PageHandler) tf(c *fiber.Ctx, key string, args ...any) string {
	return h.translator.Tf(middleware.GetLang(c), key, args...)
}

// notify stores a flash for the page the client is redirected to.
func (h *PageHandler) notify(c *fiber.Ctx, kind session.FlashKind, title, message string) {
	if err := h.sessions.Notify(c, session.Flash{Kind: kind, Title: title, Message: message}); err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to store notification", "error", err)
	}
}

func (h *PageHandler) ctx(c *fiber.Ctx) context.Context {
	return telemetry.ContextFromFiber(c)
}

func render(c *fiber.Ctx, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}

func renderStatus(c *fiber.Ctx, status int, component templ.Component) error {
	c.Status(status)
	return render(c, component)
}
