// Package session keeps who is signed in, pending notifications and the
// language preference in a server-side fiber session.
package session

import (
	"encoding/json"
	"fmt"

	"cphorme/internal/auth"
	"cphorme/internal/i18n"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyDoctorID = "doctor_id"
	keyFlash    = "flash"
	keyLang     = "lang"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-time notification shown on the next rendered page.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
}

func (f Flash) IsZero() bool {
	return f.Title == "" && f.Message == ""
}

// Manager wraps the fiber session store. Fiber releases a session once it is
// saved, so every method fetches the session again.
type Manager struct {
	store *session.Store
}

func NewManager(store *session.Store) *Manager {
	return &Manager{store: store}
}

// Begin starts an authenticated session under a fresh session ID. A non-zero
// flash is stored in the new session.
func (m *Manager) Begin(c *fiber.Ctx, account auth.Account, flash Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}

	sess.Set(keyUserID, account.UserID)
	sess.Set(keyUsername, account.Username)
	sess.Set(keyDoctorID, account.DoctorID)
	if err := setFlash(sess, flash); err != nil {
		return err
	}

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// End drops the account and everything else in the session except the
// language preference. Like Begin it can leave a flash for the next page.
func (m *Manager) End(c *fiber.Ctx, flash Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	lang, _ := sess.Get(keyLang).(string)
	if err := sess.Reset(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	if lang != "" {
		sess.Set(keyLang, lang)
	}
	if err := setFlash(sess, flash); err != nil {
		return err
	}

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *Manager) Current(c *fiber.Ctx) (auth.Account, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return auth.Account{}, false
	}

	userID, _ := sess.Get(keyUserID).(string)
	if userID == "" {
		return auth.Account{}, false
	}
	username, _ := sess.Get(keyUsername).(string)
	doctorID, _ := sess.Get(keyDoctorID).(string)

	return auth.Account{UserID: userID, Username: username, DoctorID: doctorID}, true
}

// Notify stores flash for the next rendered page. Only call it once per
// request and never after Begin or End: fiber resolves the session from the
// request cookie, which those two replace.
func (m *Manager) Notify(c *fiber.Ctx, flash Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := setFlash(sess, flash); err != nil {
		return err
	}

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func setFlash(sess *session.Session, flash Flash) error {
	if flash.IsZero() {
		return nil
	}
	data, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("failed to encode flash: %w", err)
	}
	sess.Set(keyFlash, string(data))
	return nil
}

// TakeFlash returns the pending notification and removes it.
func (m *Manager) TakeFlash(c *fiber.Ctx) (Flash, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return Flash{}, false
	}

	raw, _ := sess.Get(keyFlash).(string)
	if raw == "" {
		return Flash{}, false
	}

	sess.Delete(keyFlash)
	if err := sess.Save(); err != nil {
		return Flash{}, false
	}

	var flash Flash
	if err := json.Unmarshal([]byte(raw), &flash); err != nil {
		return Flash{}, false
	}
	return flash, true
}

func (m *Manager) SetLanguage(c *fiber.Ctx, lang i18n.Language) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	sess.Set(keyLang, lang.String())

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *Manager) Language(c *fiber.Ctx) (i18n.Language, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", false
	}

	raw, _ := sess.Get(keyLang).(string)
	lang, err := i18n.ParseLanguage(raw)
	if err != nil {
		return "", false
	}
	return lang, true
}
