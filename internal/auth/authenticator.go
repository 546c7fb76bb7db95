// Package auth checks the credentials of the single portal account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cphorme/internal/config"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is who a session belongs to. DoctorID is attached to every report
// written in that session.
type Account struct {
	UserID   string
	Username string
	DoctorID string
}

type Authenticator struct {
	logger       *slog.Logger
	email        string
	passwordHash []byte
	account      Account
}

// NewAuthenticator prepares the configured account. A plaintext password is
// hashed once here and never kept.
func NewAuthenticator(logger *slog.Logger, cfg config.AuthConfig) (*Authenticator, error) {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, errors.New("auth email is required")
	}
	if _, err := uuid.Parse(cfg.DoctorID); err != nil {
		return nil, fmt.Errorf("invalid doctor id %q: %w", cfg.DoctorID, err)
	}

	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		if cfg.Password == "" {
			return nil, errors.New("auth password or password hash is required")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}

	return &Authenticator{
		logger:       logger,
		email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		passwordHash: hash,
		account: Account{
			UserID:   cfg.UserID,
			Username: cfg.Username,
			DoctorID: cfg.DoctorID,
		},
	}, nil
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (Account, error) {
	// Always compare so a wrong email costs as much as a wrong password
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	emailMatches := strings.ToLower(strings.TrimSpace(email)) == a.email

	if !emailMatches || passwordErr != nil {
		a.logger.WarnContext(ctx, "Failed login attempt", "email", email)
		return Account{}, ErrInvalidCredentials
	}

	a.logger.InfoContext(ctx, "User logged in", "user_id", a.account.UserID)
	return a.account, nil
}
