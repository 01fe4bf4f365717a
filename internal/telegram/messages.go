package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"repost_cleaner_bot/internal/cleaner"
	"repost_cleaner_bot/internal/domain"
	"repost_cleaner_bot/internal/feature/support"
	"repost_cleaner_bot/internal/logging"
	"repost_cleaner_bot/internal/session"
)

// handleText consumes the pending state of the chat, if any. Owner-only
// states can only have been set by the owner, so they need no second check.
func (d *Dispatcher) handleText(ctx context.Context, m messenger, msg *models.Message) {
	chatID := msg.Chat.ID

	if !d.isOwner(chatID) && !d.repo.Enabled(ctx) {
		d.logDropped(chatID, "text", "bot_disabled")
		return
	}

	state := d.sessions.Take(chatID)
	switch state {
	case session.AwaitingTicket:
		d.submitTicket(ctx, m, msg)
	case session.AwaitingWelcomeEdit:
		d.updateWelcome(ctx, m, chatID, msg.Text)
	case session.AwaitingBlockTarget:
		d.blockUser(ctx, m, chatID, msg.Text)
	case session.AwaitingUnblockTarget:
		d.unblockUser(ctx, m, chatID, msg.Text)
	case session.AwaitingBroadcast:
		d.broadcast(ctx, m, chatID, msg.Text)
	case session.AwaitingSession:
		d.cleanReposts(ctx, m, chatID, msg.Text)
	default:
		d.logger.WithFields(logging.Fields{
			"event":   "text_ignored",
			"chat_id": chatID,
		}).Debug("no pending action for text")
	}
}

func (d *Dispatcher) submitTicket(ctx context.Context, m messenger, msg *models.Message) {
	chatID := msg.Chat.ID

	if err := d.support.Submit(ctx, chatID, msg.Text); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "ticket_submit_failed",
			"chat_id": chatID,
		}).WithError(err).Error("failed to store ticket")
		return
	}

	d.send(ctx, m, chatID, textTicketReceived, nil)
	d.send(ctx, m, d.ownerID, support.FormatForward(senderName(msg), chatID, msg.Text), nil)
}

func (d *Dispatcher) updateWelcome(ctx context.Context, m messenger, chatID int64, text string) {
	if err := d.repo.SetWelcome(ctx, text); err != nil {
		d.logger.WithField("event", "welcome_update_failed").WithError(err).Error("failed to store welcome text")
		return
	}

	d.logger.WithField("event", "welcome_updated").Info("welcome text updated")
	d.send(ctx, m, chatID, textWelcomeUpdated, nil)
}

func (d *Dispatcher) blockUser(ctx context.Context, m messenger, chatID int64, text string) {
	if !domain.IsChatKey(text) {
		d.send(ctx, m, chatID, textInvalidChatID, nil)
		return
	}

	if err := d.repo.Block(ctx, text); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":  "block_failed",
			"target": text,
		}).WithError(err).Error("failed to block user")
		return
	}

	d.logger.WithFields(logging.Fields{
		"event":  "user_blocked",
		"target": text,
	}).Info("user blocked")
	d.send(ctx, m, chatID, fmt.Sprintf(textUserBlocked, text), nil)
}

func (d *Dispatcher) unblockUser(ctx context.Context, m messenger, chatID int64, text string) {
	if !domain.IsChatKey(text) {
		d.send(ctx, m, chatID, textInvalidChatID, nil)
		return
	}

	removed, err := d.repo.Unblock(ctx, text)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":  "unblock_failed",
			"target": text,
		}).WithError(err).Error("failed to unblock user")
		return
	}
	if !removed {
		d.send(ctx, m, chatID, fmt.Sprintf(textNotBlocked, text), nil)
		return
	}

	d.logger.WithFields(logging.Fields{
		"event":  "user_unblocked",
		"target": text,
	}).Info("user unblocked")
	d.send(ctx, m, chatID, fmt.Sprintf(textUserUnblocked, text), nil)
}

func (d *Dispatcher) broadcast(ctx context.Context, m messenger, chatID int64, text string) {
	report, err := d.broadcaster.Broadcast(ctx, messengerSender{m: m}, text)
	if err != nil {
		d.logger.WithField("event", "broadcast_failed").WithError(err).Error("broadcast could not start")
		return
	}

	d.send(ctx, m, chatID, fmt.Sprintf(textBroadcastDone, report.Delivered), nil)
}

func (d *Dispatcher) cleanReposts(ctx context.Context, m messenger, chatID int64, text string) {
	if _, err := cleaner.NormalizeSessionID(text); err != nil {
		d.send(ctx, m, chatID, textInvalidSession, nil)
		return
	}

	d.send(ctx, m, chatID, textProcessing, nil)

	result, err := d.cleaner.Clean(ctx, text)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "cleaner_request_failed",
			"chat_id": chatID,
		}).WithError(err).Error("cleaner request failed")

		reply := textCleanerDown
		if errors.Is(err, cleaner.ErrInvalidSessionID) {
			reply = textInvalidSession
		}
		d.send(ctx, m, chatID, reply, nil)
		return
	}

	if result.Success {
		d.send(ctx, m, chatID, fmt.Sprintf(textCleanSuccess, result.DeletedCount()), nil)
		return
	}

	reason := result.Message
	if reason == "" {
		reason = textUnknownReason
	}
	d.send(ctx, m, chatID, fmt.Sprintf(textCleanFailed, reason), nil)
}

// messengerSender adapts a messenger to owner.Sender.
type messengerSender struct {
	m messenger
}

func (s messengerSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.m.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

func senderName(msg *models.Message) string {
	if msg.From == nil {
		return domain.ChatKey(msg.Chat.ID)
	}

	name := strings.TrimSpace(strings.TrimSpace(msg.From.FirstName) + " " + strings.TrimSpace(msg.From.LastName))
	if name != "" {
		return name
	}
	if msg.From.Username != "" {
		return "@" + msg.From.Username
	}
	return domain.ChatKey(msg.From.ID)
}
