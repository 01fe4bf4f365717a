package telegram

import (
	"github.com/go-telegram/bot/models"

	"repost_cleaner_bot/internal/menu"
)

// inlineKeyboard converts rendered menu rows into Telegram inline markup.
func inlineKeyboard(rows []menu.Row) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, button := range row {
			converted := models.InlineKeyboardButton{Text: button.Label}
			if button.IsLink() {
				converted.URL = button.URL
			} else {
				converted.CallbackData = button.Action
			}
			buttons = append(buttons, converted)
		}
		keyboard = append(keyboard, buttons)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}

func generalKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard(menu.Render(menu.General))
}

func ownerKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard(menu.Render(menu.Owner))
}

func backKeyboard() *models.InlineKeyboardMarkup {
	return inlineKeyboard(menu.Back(menu.ActionBackMain))
}
