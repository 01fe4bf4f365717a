// Package domain defines the bot's records and the repository that persists them.
package domain

import "strconv"

const (
	// RoleOwner represents the configured owner chat with dashboard access.
	RoleOwner = "owner"
	// RoleUser represents any other chat.
	RoleUser = "user"
)

// ChatKey renders a chat id the way documents key it.
func ChatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// RoleFor resolves the role of chatID given the configured owner.
func RoleFor(chatID, ownerID int64) string {
	if ownerID != 0 && chatID == ownerID {
		return RoleOwner
	}

	return RoleUser
}
