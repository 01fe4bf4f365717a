// Package support handles support tickets: submission from users and the
// digest the owner reads them through.
package support

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"repost_cleaner_bot/internal/domain"
	"repost_cleaner_bot/internal/logging"
)

// DigestBatchSize is the number of tickets packed into one digest message.
const DigestBatchSize = 5

type ticketStore interface {
	AppendTicket(ctx context.Context, key, text string) error
	Tickets(ctx context.Context) domain.Tickets
}

// Desk appends tickets to the log and renders the owner digest.
type Desk struct {
	tickets ticketStore
	logger  *logrus.Entry
}

// NewDesk constructs a Desk over the ticket store.
func NewDesk(tickets ticketStore, logger *logrus.Entry) *Desk {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Desk{
		tickets: tickets,
		logger:  logger,
	}
}

// Submit appends text to the ticket log of chatID. Text is stored verbatim.
func (d *Desk) Submit(ctx context.Context, chatID int64, text string) error {
	if d == nil || d.tickets == nil {
		return errors.New("support desk is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := d.tickets.AppendTicket(ctx, domain.ChatKey(chatID), text); err != nil {
		return fmt.Errorf("submit ticket: %w", err)
	}

	d.logger.WithFields(logging.Fields{
		"event":   "ticket_submitted",
		"chat_id": chatID,
	}).Info("ticket submitted")

	return nil
}

// Digest renders every logged ticket, DigestBatchSize per message. An empty
// log yields no messages.
func (d *Desk) Digest(ctx context.Context) []string {
	if d == nil || d.tickets == nil {
		return nil
	}

	tickets := d.tickets.Tickets(ctx)

	lines := make([]string, 0, len(tickets))
	for _, key := range domain.SortedTicketKeys(tickets) {
		for _, text := range tickets[key] {
			lines = append(lines, FormatTicket(key, text))
		}
	}

	messages := make([]string, 0, (len(lines)+DigestBatchSize-1)/DigestBatchSize)
	for start := 0; start < len(lines); start += DigestBatchSize {
		end := min(start+DigestBatchSize, len(lines))
		messages = append(messages, strings.Join(lines[start:end], "\n\n"))
	}

	return messages
}

// HasTickets reports whether any chat has an entry in the ticket log, even an
// empty one.
func (d *Desk) HasTickets(ctx context.Context) bool {
	if d == nil || d.tickets == nil {
		return false
	}

	return len(d.tickets.Tickets(ctx)) > 0
}

// FormatTicket renders a single digest entry.
func FormatTicket(key, text string) string {
	return fmt.Sprintf("👤 ID: %s\n📩 %s", key, text)
}

// FormatForward renders the copy of a new ticket sent to the owner.
func FormatForward(senderName string, chatID int64, text string) string {
	return fmt.Sprintf("🎟️ تذكرة جديدة من %s (%s):\n%s", senderName, domain.ChatKey(chatID), text)
}
