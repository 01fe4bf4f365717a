package domain

import "repost_cleaner_bot/internal/store"

// Document names. The file backend uses them as file names.
const (
	DocUsers    = "users.json"
	DocBlocked  = "blocked.json"
	DocTickets  = "tickets.json"
	DocSettings = "settings.json"
	DocWelcome  = "welcome.txt"
)

// DefaultWelcome is shown until the owner edits the welcome message.
const DefaultWelcome = "🔐 لحذف الريبوستات، أرسل sessionid الخاص بك:"

// Users maps chat id to the ISO-8601 timestamp of first contact.
type Users map[string]string

// Blocked is the set of blocked chat ids.
type Blocked map[string]bool

// Tickets maps chat id to the support messages it submitted, oldest first.
type Tickets map[string][]string

// Settings holds bot-wide switches. Keys this bot does not know are kept as
// they are when the document is rewritten.
type Settings map[string]any

const settingEnabled = "enabled"

// IsEnabled reports the enabled flag. It defaults to true when the key is
// absent or not a boolean.
func (s Settings) IsEnabled() bool {
	enabled, ok := s[settingEnabled].(bool)
	return !ok || enabled
}

// Defaults lists every document with the content it gets on a fresh install.
func Defaults() []store.Default {
	return []store.Default{
		{Name: DocUsers, Body: store.EmptyObject},
		{Name: DocBlocked, Body: store.EmptyObject},
		{Name: DocTickets, Body: store.EmptyObject},
		{Name: DocSettings, Body: store.EmptyObject},
		{Name: DocWelcome, Body: []byte(DefaultWelcome)},
	}
}
