package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/cleaner"
	"repost_cleaner_bot/internal/domain"
	"repost_cleaner_bot/internal/feature/owner"
	"repost_cleaner_bot/internal/feature/support"
	"repost_cleaner_bot/internal/feature/user"
	"repost_cleaner_bot/internal/logging"
	"repost_cleaner_bot/internal/menu"
	"repost_cleaner_bot/internal/session"
)

const (
	commandStart     = "start"
	commandDashboard = "dashboard"
)

// messenger is the subset of the Bot API the dispatcher talks to. *bot.Bot
// satisfies it.
type messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

type repostCleaner interface {
	Clean(ctx context.Context, sessionID string) (cleaner.Result, error)
}

// Deps wires the dispatcher to its collaborators.
type Deps struct {
	OwnerChatID int64
	Repository  *domain.Repository
	Sessions    *session.Manager
	Users       *user.Registrar
	Support     *support.Desk
	Broadcaster *owner.Broadcaster
	Cleaner     repostCleaner
	Logger      *logrus.Entry
}

// Dispatcher routes commands, button presses and free text to actions. Every
// failure is turned into a reply or a log line; none is returned.
type Dispatcher struct {
	ownerID     int64
	repo        *domain.Repository
	sessions    *session.Manager
	users       *user.Registrar
	support     *support.Desk
	broadcaster *owner.Broadcaster
	cleaner     repostCleaner
	logger      *logrus.Entry
}

// NewDispatcher validates deps and builds a Dispatcher.
func NewDispatcher(deps Deps) (*Dispatcher, error) {
	switch {
	case deps.OwnerChatID == 0:
		return nil, errors.New("owner chat id is required")
	case deps.Repository == nil:
		return nil, errors.New("repository is required")
	case deps.Sessions == nil:
		return nil, errors.New("session manager is required")
	case deps.Users == nil:
		return nil, errors.New("user registrar is required")
	case deps.Support == nil:
		return nil, errors.New("support desk is required")
	case deps.Broadcaster == nil:
		return nil, errors.New("broadcaster is required")
	case deps.Cleaner == nil:
		return nil, errors.New("cleaner client is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	return &Dispatcher{
		ownerID:     deps.OwnerChatID,
		repo:        deps.Repository,
		sessions:    deps.Sessions,
		users:       deps.Users,
		support:     deps.Support,
		broadcaster: deps.Broadcaster,
		cleaner:     deps.Cleaner,
		logger:      logger,
	}, nil
}

// HandleUpdate processes a single inbound update.
func (d *Dispatcher) HandleUpdate(ctx context.Context, m messenger, update *models.Update) {
	if d == nil || m == nil || update == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, m, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, m, update.Message)
	}
}

func (d *Dispatcher) isOwner(id int64) bool {
	return domain.RoleFor(id, d.ownerID) == domain.RoleOwner
}

func (d *Dispatcher) handleMessage(ctx context.Context, m messenger, msg *models.Message) {
	if msg.Text == "" {
		return
	}

	if name, ok := parseCommand(msg.Text); ok {
		switch name {
		case commandStart:
			d.handleStart(ctx, m, msg)
		case commandDashboard:
			d.handleDashboard(ctx, m, msg)
		}
		return
	}

	d.handleText(ctx, m, msg)
}

func (d *Dispatcher) handleStart(ctx context.Context, m messenger, msg *models.Message) {
	chatID := msg.Chat.ID

	if !d.isOwner(chatID) && !d.repo.Enabled(ctx) {
		d.logDropped(chatID, "start", "bot_disabled")
		return
	}
	if d.repo.IsBlocked(ctx, chatID) {
		d.logDropped(chatID, "start", "blocked")
		return
	}

	if _, err := d.users.EnsureUser(ctx, chatID); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "user_register_failed",
			"chat_id": chatID,
		}).WithError(err).Error("failed to register user")
	}

	d.send(ctx, m, chatID, d.repo.Welcome(ctx), generalKeyboard())
}

func (d *Dispatcher) handleDashboard(ctx context.Context, m messenger, msg *models.Message) {
	chatID := msg.Chat.ID
	if !d.isOwner(chatID) {
		d.send(ctx, m, chatID, textCommandDenied, nil)
		return
	}

	d.send(ctx, m, chatID, textOwnerDashboard, ownerKeyboard())
}

func (d *Dispatcher) handleCallback(ctx context.Context, m messenger, query *models.CallbackQuery) {
	if _, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":       "callback_answer_failed",
			"callback_id": query.ID,
		}).WithError(err).Warn("failed to answer callback query")
	}

	action := query.Data
	target := callbackTarget(query)
	pressedBy := query.From.ID

	if menu.OwnerOnly(action) && !d.isOwner(pressedBy) {
		d.logger.WithFields(logging.Context{
			UserID: pressedBy,
			ChatID: target.chatID,
			Event:  "owner_action_denied",
			Action: action,
		}.Fields()).Warn("non-owner pressed owner button")
		d.edit(ctx, m, target, textCallbackDenied, nil)
		return
	}

	switch action {
	case menu.ActionDeleteReposts:
		d.sessions.Set(target.chatID, session.AwaitingSession)
		d.edit(ctx, m, target, textPromptSession, backKeyboard())
	case menu.ActionSendTicket:
		d.sessions.Set(target.chatID, session.AwaitingTicket)
		d.edit(ctx, m, target, textPromptTicket, backKeyboard())
	case menu.ActionBackMain:
		d.sessions.Clear(target.chatID)
		d.edit(ctx, m, target, d.repo.Welcome(ctx), generalKeyboard())
	case menu.ActionDashboard:
		d.edit(ctx, m, target, textOwnerDashboard, ownerKeyboard())
	case menu.ActionUserCount:
		d.edit(ctx, m, target, fmt.Sprintf(textUserCount, d.repo.CountUsers(ctx)), backKeyboard())
	case menu.ActionExportUsers:
		for _, chunk := range owner.ExportChunks(d.repo.UserIDs(ctx), owner.ExportChunkSize) {
			d.send(ctx, m, target.chatID, chunk, nil)
		}
	case menu.ActionToggleBot:
		d.toggleBot(ctx, m, target)
	case menu.ActionEditWelcome:
		d.sessions.Set(target.chatID, session.AwaitingWelcomeEdit)
		d.edit(ctx, m, target, textPromptWelcome, backKeyboard())
	case menu.ActionViewTickets:
		d.viewTickets(ctx, m, target)
	case menu.ActionBlockUser:
		d.sessions.Set(target.chatID, session.AwaitingBlockTarget)
		d.edit(ctx, m, target, textPromptBlock, backKeyboard())
	case menu.ActionUnblockUser:
		d.sessions.Set(target.chatID, session.AwaitingUnblockTarget)
		d.edit(ctx, m, target, textPromptUnblock, backKeyboard())
	case menu.ActionBroadcast:
		d.sessions.Set(target.chatID, session.AwaitingBroadcast)
		d.edit(ctx, m, target, textPromptBroadcast, backKeyboard())
	default:
		d.logger.WithFields(logging.Fields{
			"event":  "callback_unknown",
			"action": action,
		}).Debug("ignoring unknown callback")
	}
}

func (d *Dispatcher) toggleBot(ctx context.Context, m messenger, target messageRef) {
	enabled, err := d.repo.ToggleEnabled(ctx)
	if err != nil {
		d.logger.WithField("event", "toggle_failed").WithError(err).Error("failed to toggle bot state")
		return
	}

	status := textStateDisabled
	if enabled {
		status = textStateEnabled
	}

	d.logger.WithFields(logging.Fields{
		"event":   "bot_toggled",
		"enabled": enabled,
	}).Info("bot state changed")

	d.edit(ctx, m, target, fmt.Sprintf(textToggled, status), backKeyboard())
}

func (d *Dispatcher) viewTickets(ctx context.Context, m messenger, target messageRef) {
	if !d.support.HasTickets(ctx) {
		d.edit(ctx, m, target, textNoTickets, backKeyboard())
		return
	}

	for _, part := range d.support.Digest(ctx) {
		d.send(ctx, m, d.ownerID, part, nil)
	}
	d.edit(ctx, m, target, textTicketsSent, backKeyboard())
}

func (d *Dispatcher) logDropped(chatID int64, action, reason string) {
	d.logger.WithFields(logging.Context{
		ChatID: chatID,
		Event:  "update_dropped",
		Action: action,
	}.Fields()).WithField("reason", reason).Debug("update dropped by gate")
}

func (d *Dispatcher) send(ctx context.Context, m messenger, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := m.SendMessage(ctx, params); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":   "send_failed",
			"chat_id": chatID,
		}).WithError(err).Warn("failed to send message")
	}
}

func (d *Dispatcher) edit(ctx context.Context, m messenger, target messageRef, text string, markup *models.InlineKeyboardMarkup) {
	if target.messageID == 0 {
		d.send(ctx, m, target.chatID, text, markup)
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    target.chatID,
		MessageID: target.messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := m.EditMessageText(ctx, params); err != nil {
		d.logger.WithFields(logging.Fields{
			"event":      "edit_failed",
			"chat_id":    target.chatID,
			"message_id": target.messageID,
		}).WithError(err).Warn("failed to edit message")
	}
}

// messageRef points at the message carrying a pressed button.
type messageRef struct {
	chatID    int64
	messageID int
}

func callbackTarget(query *models.CallbackQuery) messageRef {
	ref := messageRef{chatID: query.From.ID}

	switch query.Message.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if query.Message.Message != nil {
			ref.chatID = query.Message.Message.Chat.ID
			ref.messageID = query.Message.Message.ID
		}
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if query.Message.InaccessibleMessage != nil {
			ref.chatID = query.Message.InaccessibleMessage.Chat.ID
			ref.messageID = query.Message.InaccessibleMessage.MessageID
		}
	}

	return ref
}

// parseCommand extracts the command name from "/name", "/name@bot" or
// "/name args". Text not starting with a slash is not a command.
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	return strings.ToLower(name), true
}
