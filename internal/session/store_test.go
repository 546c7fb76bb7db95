package session_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cphorme/internal/auth"
	"cphorme/internal/i18n"
	"cphorme/internal/session"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "SID"

var account = auth.Account{UserID: "1", Username: "Ahmed", DoctorID: "5a2f0bc2-6f27-4ab0-8418-e505a08b07e4"}

func newApp() *fiber.App {
	manager := session.NewManager(fibersession.New(fibersession.Config{KeyLookup: "cookie:" + cookieName}))
	app := fiber.New()

	app.Get("/begin", func(c *fiber.Ctx) error {
		return manager.Begin(c, account, session.Flash{Kind: session.FlashSuccess, Title: "Welcome"})
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		acc, ok := manager.Current(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return c.SendString(acc.Username + "/" + acc.DoctorID)
	})
	app.Get("/notify", func(c *fiber.Ctx) error {
		return manager.Notify(c, session.Flash{Kind: session.FlashSuccess, Title: "Saved"})
	})
	app.Get("/flash", func(c *fiber.Ctx) error {
		flash, ok := manager.TakeFlash(c)
		if !ok {
			return c.SendString("none")
		}
		return c.SendString(string(flash.Kind) + ":" + flash.Title)
	})
	app.Get("/lang/:lang", func(c *fiber.Ctx) error {
		lang, err := i18n.ParseLanguage(c.Params("lang"))
		if err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return manager.SetLanguage(c, lang)
	})
	app.Get("/lang", func(c *fiber.Ctx) error {
		lang, _ := manager.Language(c)
		return c.SendString(lang.String())
	})
	app.Get("/end", func(c *fiber.Ctx) error {
		return manager.End(c, session.Flash{})
	})
	return app
}

// get performs a request carrying sid and returns the body and the session
// cookie the response set, or sid when none was set.
func get(t *testing.T, app *fiber.App, path, sid string) (string, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	for _, cookie := range resp.Cookies() {
		if cookie.Name == cookieName {
			if cookie.MaxAge < 0 || cookie.Value == "" {
				continue
			}
			sid = cookie.Value
		}
	}
	return string(body), sid
}

func TestManager_BeginAndCurrent(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, anonymous := get(t, app, "/notify", "")
	require.NotEmpty(t, anonymous)

	_, sid := get(t, app, "/begin", anonymous)
	require.NotEmpty(t, sid)
	assert.NotEqual(t, anonymous, sid, "login issues a new session id")

	body, sid := get(t, app, "/whoami", sid)
	assert.Equal(t, "Ahmed/5a2f0bc2-6f27-4ab0-8418-e505a08b07e4", body)

	body, _ = get(t, app, "/flash", sid)
	assert.Equal(t, "success:Welcome", body)
}

func TestManager_FlashIsShownOnce(t *testing.T) {
	app := newApp()

	_, sid := get(t, app, "/notify", "")

	body, sid := get(t, app, "/flash", sid)
	assert.Equal(t, "success:Saved", body)

	body, _ = get(t, app, "/flash", sid)
	assert.Equal(t, "none", body)
}

func TestManager_EndKeepsLanguage(t *testing.T) {
	app := newApp()

	_, sid := get(t, app, "/lang/nl", "")
	_, sid = get(t, app, "/begin", sid)

	_, after := get(t, app, "/end", sid)
	require.NotEmpty(t, after)
	assert.NotEqual(t, sid, after)

	body, _ := get(t, app, "/lang", after)
	assert.Equal(t, "nl", body)

	resp, err := app.Test(withCookie("/whoami", after))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(withCookie("/whoami", sid))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "old session id is no longer valid")
}

func withCookie(path, sid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	return req
}
