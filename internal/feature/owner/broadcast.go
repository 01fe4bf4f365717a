// Package owner implements the owner-only bulk operations: broadcasting a
// message to every known chat and exporting the user list.
package owner

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/logging"
)

// Sender delivers one text message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

type recipientStore interface {
	UserIDs(ctx context.Context) []string
}

// Report summarizes a broadcast run.
type Report struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Broadcaster delivers a message to every registered chat, one at a time.
type Broadcaster struct {
	users  recipientStore
	logger *logrus.Entry
}

// NewBroadcaster constructs a Broadcaster over the user store.
func NewBroadcaster(users recipientStore, logger *logrus.Entry) *Broadcaster {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Broadcaster{
		users:  users,
		logger: logger,
	}
}

// Broadcast sends text to every registered chat in order. A failed delivery
// is logged and skipped; it is never retried. Cancelling ctx stops the run and
// the remaining recipients count as failed.
func (b *Broadcaster) Broadcast(ctx context.Context, sender Sender, text string) (Report, error) {
	if b == nil || b.users == nil {
		return Report{}, errors.New("broadcaster is not initialized")
	}
	if sender == nil {
		return Report{}, errors.New("sender is required")
	}
	if ctx == nil {
		return Report{}, errors.New("context is required")
	}

	ids := b.users.UserIDs(ctx)
	report := Report{Recipients: len(ids)}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Failed += len(ids) - i
			b.logger.WithFields(logging.Fields{
				"event":     "broadcast_aborted",
				"remaining": len(ids) - i,
			}).WithError(err).Warn("broadcast interrupted")
			break
		}

		chatID, err := strconv.ParseInt(id, 10, 64)
		if err == nil {
			err = sender.Send(ctx, chatID, text)
		}
		if err != nil {
			report.Failed++
			b.logger.WithFields(logging.Fields{
				"event":   "broadcast_delivery_failed",
				"chat_id": id,
			}).WithError(err).Warn("broadcast delivery failed")
			continue
		}

		report.Delivered++
	}

	b.logger.WithFields(logging.Fields{
		"event":      "broadcast_completed",
		"recipients": report.Recipients,
		"delivered":  report.Delivered,
		"failed":     report.Failed,
	}).Info("broadcast completed")

	return report, nil
}
