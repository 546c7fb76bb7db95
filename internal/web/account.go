package web

import (
	"errors"
	"strings"

	"cphorme/internal/auth"
	"cphorme/internal/backend"
	"cphorme/internal/form"
	"cphorme/internal/session"
	"cphorme/internal/telemetry"
	"cphorme/internal/web/views"

	"github.com/gofiber/fiber/v2"
)

const (
	organizationLoginPath = "/login/organization"
	dashboardPath         = "/dashboard"
)

func (h *PageHandler) ShowLoginChooser(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.Redirect(dashboardPath, fiber.StatusSeeOther)
	}
	return render(c, views.LoginChooser(views.LoginChooserProps{
		Layout: h.layout(c, "login.title"),
	}))
}

func (h *PageHandler) ShowLoginPage(c *fiber.Ctx) error {
	if _, ok := h.sessions.Current(c); ok {
		return c.Redirect(dashboardPath, fiber.StatusSeeOther)
	}
	return h.renderLogin(c, fiber.StatusOK, "", nil)
}

func (h *PageHandler) renderLogin(c *fiber.Ctx, status int, email string, errs form.FieldErrors) error {
	headingKey := "login.doctor_title"
	action := "/login/doctor"
	if strings.HasPrefix(c.Path(), organizationLoginPath) {
		headingKey = "login.organization_title"
		action = organizationLoginPath
	}

	layout := h.layout(c, headingKey)
	return renderStatus(c, status, views.Login(views.LoginProps{
		Layout:  layout,
		Heading: layout.T(headingKey),
		Action:  action,
		Email:   email,
		Errors:  errs,
	}))
}

// Login checks the credentials and starts the session. Doctors and
// organizations share the same account check.
func (h *PageHandler) Login(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	values, err := formValues(c)
	if err != nil {
		return err
	}
	f := form.ParseLoginForm(values)

	if errs := f.Validate(h.validator); errs.Any() {
		return h.renderLogin(c, fiber.StatusUnprocessableEntity, f.Email, errs)
	}

	account, err := h.auth.Login(ctx, f.Email, f.Password)
	if err != nil {
		h.telemetry.RecordLogin(ctx, false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.InfoContext(ctx, "Login rejected", "ip", c.IP())
			return h.renderLogin(c, fiber.StatusUnauthorized, f.Email, form.FieldErrors{"": h.t(c, "login.invalid")})
		}
		return err
	}

	flash := session.Flash{Kind: session.FlashSuccess, Title: h.t(c, "login.success"), Message: h.t(c, "login.welcome")}
	if err := h.sessions.Begin(c, account, flash); err != nil {
		return err
	}
	h.telemetry.RecordLogin(ctx, true)
	h.logger.InfoContext(ctx, "User logged in", "user_id", account.UserID, "ip", c.IP())

	return c.Redirect(dashboardPath, fiber.StatusSeeOther)
}

func (h *PageHandler) Logout(c *fiber.Ctx) error {
	account, signedIn := h.sessions.Current(c)

	flash := session.Flash{Kind: session.FlashInfo, Title: h.t(c, "logout.title"), Message: h.t(c, "logout.message")}
	if !signedIn {
		flash = session.Flash{}
	}
	if err := h.sessions.End(c, flash); err != nil {
		return err
	}
	if signedIn {
		h.logger.InfoContext(h.ctx(c), "User logged out", "user_id", account.UserID)
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *PageHandler) ShowSignupPage(c *fiber.Ctx) error {
	return h.renderSignup(c, fiber.StatusOK, form.SignupForm{}, nil, nil)
}

func (h *PageHandler) renderSignup(c *fiber.Ctx, status int, f form.SignupForm, errs form.FieldErrors, flash *session.Flash) error {
	layout := h.layout(c, "signup.title")
	if flash != nil {
		layout.Flash = flash
	}
	f.Password = ""

	return renderStatus(c, status, views.Signup(views.SignupProps{
		Layout: layout,
		Form:   f,
		Errors: errs,
	}))
}

// Signup forwards the registration to the signup service. On success the
// user is sent to the doctor login with a confirmation.
func (h *PageHandler) Signup(c *fiber.Ctx) error {
	ctx := h.ctx(c)

	values, err := formValues(c)
	if err != nil {
		return err
	}
	f := form.ParseSignupForm(values)

	if errs := f.Validate(h.validator); errs.Any() {
		h.telemetry.RecordFormSubmission(ctx, "signup", telemetry.OutcomeInvalid)
		return h.renderSignup(c, fiber.StatusUnprocessableEntity, f, errs, &session.Flash{
			Kind:    session.FlashError,
			Title:   h.t(c, "validation.title"),
			Message: h.t(c, "validation.detail"),
		})
	}

	result, err := h.backend.Signup(ctx, f.Request())
	if err != nil {
		h.logger.ErrorContext(ctx, "Signup failed", "error", err)
		h.telemetry.RecordFormSubmission(ctx, "signup", telemetry.OutcomeBackendError)
		return h.renderSignup(c, fiber.StatusBadGateway, f, nil, &session.Flash{
			Kind:  session.FlashError,
			Title: h.tf(c, "signup.failed", backend.UserMessage(err)),
		})
	}

	h.telemetry.RecordFormSubmission(ctx, "signup", telemetry.OutcomeSaved)
	h.notify(c, session.FlashSuccess, h.t(c, "signup.success"), result.Message)

	return c.Redirect("/login/doctor", fiber.StatusSeeOther)
}
