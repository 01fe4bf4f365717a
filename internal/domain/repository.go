package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"repost_cleaner_bot/internal/store"
)

// TimestampLayout formats first-contact timestamps in users.json.
const TimestampLayout = time.RFC3339Nano

var errRepositoryNotInitialized = errors.New("repository is not initialized")

// Repository is the only component that reads or writes bot documents.
// Mutations run under the documents lock; reads do not.
type Repository struct {
	docs *store.Documents
}

// NewRepository constructs a Repository over docs.
func NewRepository(docs *store.Documents) *Repository {
	return &Repository{docs: docs}
}

// RegisterUser records the first contact of chatID. It reports whether a new
// record was created; an existing timestamp is never changed.
func (r *Repository) RegisterUser(ctx context.Context, chatID int64, now time.Time) (bool, error) {
	if r == nil || r.docs == nil {
		return false, errRepositoryNotInitialized
	}

	created := false
	err := r.docs.Mutate(func() error {
		users, err := loadForUpdate[Users](ctx, r, DocUsers)
		if err != nil {
			return err
		}
		if users == nil {
			users = Users{}
		}

		key := ChatKey(chatID)
		if _, ok := users[key]; ok {
			return nil
		}

		users[key] = now.Format(TimestampLayout)
		if err := r.docs.SaveJSON(ctx, DocUsers, users); err != nil {
			return fmt.Errorf("save users: %w", err)
		}
		created = true
		return nil
	})

	return created, err
}

// Users returns every known chat with its first-contact timestamp.
func (r *Repository) Users(ctx context.Context) Users {
	users := load[Users](ctx, r, DocUsers)
	if users == nil {
		users = Users{}
	}
	return users
}

// UserIDs returns the known chat ids in a stable order.
func (r *Repository) UserIDs(ctx context.Context) []string {
	users := r.Users(ctx)
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sortChatKeys(ids)
	return ids
}

// CountUsers returns the number of known chats.
func (r *Repository) CountUsers(ctx context.Context) int {
	return len(r.Users(ctx))
}

// IsBlocked reports whether chatID is on the block list.
func (r *Repository) IsBlocked(ctx context.Context, chatID int64) bool {
	blocked := load[Blocked](ctx, r, DocBlocked)
	return blocked[ChatKey(chatID)]
}

// Block adds key to the block list.
func (r *Repository) Block(ctx context.Context, key string) error {
	if r == nil || r.docs == nil {
		return errRepositoryNotInitialized
	}

	return r.docs.Mutate(func() error {
		blocked, err := loadForUpdate[Blocked](ctx, r, DocBlocked)
		if err != nil {
			return err
		}
		if blocked == nil {
			blocked = Blocked{}
		}
		blocked[key] = true

		if err := r.docs.SaveJSON(ctx, DocBlocked, blocked); err != nil {
			return fmt.Errorf("save blocked: %w", err)
		}
		return nil
	})
}

// Unblock removes key from the block list and reports whether it was present.
func (r *Repository) Unblock(ctx context.Context, key string) (bool, error) {
	if r == nil || r.docs == nil {
		return false, errRepositoryNotInitialized
	}

	removed := false
	err := r.docs.Mutate(func() error {
		blocked, err := loadForUpdate[Blocked](ctx, r, DocBlocked)
		if err != nil {
			return err
		}
		if _, ok := blocked[key]; !ok {
			return nil
		}
		delete(blocked, key)

		if err := r.docs.SaveJSON(ctx, DocBlocked, blocked); err != nil {
			return fmt.Errorf("save blocked: %w", err)
		}
		removed = true
		return nil
	})

	return removed, err
}

// AppendTicket adds text to the ticket log of key.
func (r *Repository) AppendTicket(ctx context.Context, key, text string) error {
	if r == nil || r.docs == nil {
		return errRepositoryNotInitialized
	}

	return r.docs.Mutate(func() error {
		tickets, err := loadForUpdate[Tickets](ctx, r, DocTickets)
		if err != nil {
			return err
		}
		if tickets == nil {
			tickets = Tickets{}
		}
		tickets[key] = append(tickets[key], text)

		if err := r.docs.SaveJSON(ctx, DocTickets, tickets); err != nil {
			return fmt.Errorf("save tickets: %w", err)
		}
		return nil
	})
}

// Tickets returns the full ticket log.
func (r *Repository) Tickets(ctx context.Context) Tickets {
	tickets := load[Tickets](ctx, r, DocTickets)
	if tickets == nil {
		tickets = Tickets{}
	}
	return tickets
}

// Enabled reports whether the bot serves non-owner chats.
func (r *Repository) Enabled(ctx context.Context) bool {
	return load[Settings](ctx, r, DocSettings).IsEnabled()
}

// ToggleEnabled flips the enabled flag and returns the new value.
func (r *Repository) ToggleEnabled(ctx context.Context) (bool, error) {
	if r == nil || r.docs == nil {
		return false, errRepositoryNotInitialized
	}

	var enabled bool
	err := r.docs.Mutate(func() error {
		settings, err := loadForUpdate[Settings](ctx, r, DocSettings)
		if err != nil {
			return err
		}
		if settings == nil {
			settings = Settings{}
		}
		next := !settings.IsEnabled()
		settings[settingEnabled] = next

		if err := r.docs.SaveJSON(ctx, DocSettings, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		enabled = next
		return nil
	})

	return enabled, err
}

// Welcome returns the current welcome text, falling back to DefaultWelcome
// when the document is missing or blank.
func (r *Repository) Welcome(ctx context.Context) string {
	if r == nil || r.docs == nil {
		return DefaultWelcome
	}

	text, ok := r.docs.LoadText(ctx, DocWelcome)
	if !ok || strings.TrimSpace(text) == "" {
		return DefaultWelcome
	}
	return text
}

// SetWelcome replaces the welcome text.
func (r *Repository) SetWelcome(ctx context.Context, text string) error {
	if r == nil || r.docs == nil {
		return errRepositoryNotInitialized
	}

	return r.docs.Mutate(func() error {
		if err := r.docs.SaveText(ctx, DocWelcome, text); err != nil {
			return fmt.Errorf("save welcome: %w", err)
		}
		return nil
	})
}

// Ping reports whether the underlying storage is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r == nil || r.docs == nil {
		return errRepositoryNotInitialized
	}

	return r.docs.Ping(ctx)
}

func load[T any](ctx context.Context, r *Repository, name string) T {
	if r == nil {
		var zero T
		return zero
	}
	return store.LoadJSON[T](ctx, r.docs, name)
}

// loadForUpdate reads a document that is about to be rewritten. Backend
// failures abort the mutation instead of degrading to an empty value.
func loadForUpdate[T any](ctx context.Context, r *Repository, name string) (T, error) {
	value, err := store.LoadJSONForUpdate[T](ctx, r.docs, name)
	if err != nil {
		return value, fmt.Errorf("load %s: %w", strings.TrimSuffix(name, ".json"), err)
	}
	return value, nil
}

// sortChatKeys orders numeric keys numerically and everything else after them.
func sortChatKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		da, db := isDigits(a), isDigits(b)
		if da != db {
			return da
		}
		if da && len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

// SortedTicketKeys returns the chats present in tickets in a stable order.
func SortedTicketKeys(tickets Tickets) []string {
	keys := make([]string, 0, len(tickets))
	for key := range tickets {
		keys = append(keys, key)
	}
	sortChatKeys(keys)
	return keys
}

// IsChatKey reports whether text is a plausible chat id: one or more ASCII digits.
func IsChatKey(text string) bool {
	return isDigits(text)
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
