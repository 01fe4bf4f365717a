// Package user provides helpers for first-contact user registration.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/logging"
)

type userStore interface {
	RegisterUser(ctx context.Context, chatID int64, now time.Time) (bool, error)
}

// Registrar records every chat that reaches /start. The first-contact
// timestamp is written once and never refreshed.
type Registrar struct {
	users  userStore
	logger *logrus.Entry
	now    func() time.Time
}

// NewRegistrar constructs a Registrar for the provided user store.
func NewRegistrar(users userStore, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// EnsureUser registers chatID when it is not yet known and reports whether a
// new record was created.
func (r *Registrar) EnsureUser(ctx context.Context, chatID int64) (bool, error) {
	if r == nil || r.users == nil {
		return false, errors.New("user registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if chatID == 0 {
		return false, errors.New("chat id is required")
	}

	created, err := r.users.RegisterUser(ctx, chatID, r.now().UTC())
	if err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "user_registered",
			"chat_id": chatID,
		}).Info("registered new user")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "user_seen",
		"chat_id": chatID,
	}).Debug("user already registered")

	return false, nil
}
