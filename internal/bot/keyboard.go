package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkorobov/remindbot/internal/domain"
)

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Напоминание", "menu_remind"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Заметки", "menu_notes"),
			tgbotapi.NewInlineKeyboardButtonData("🛍 Списки", "menu_lists"),
		),
	)
}

func reminderListKeyboard(reminders []*domain.Reminder) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, r := range reminders {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 #%d %s", r.ID, truncate(r.Text, 20)),
				fmt.Sprintf("rcancel:%d", r.ID),
			),
		))
		if len(rows) >= 10 {
			break
		}
	}

	if len(rows) == 0 {
		return nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

func noteListKeyboard(notes []*domain.Note) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, n := range notes {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 #%d %s", n.ID, truncate(n.Text, 20)),
				fmt.Sprintf("ndel:%d", n.ID),
			),
		))
		if len(rows) >= 10 {
			break
		}
	}

	if len(rows) == 0 {
		return nil
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}

func shoppingListsKeyboard(lists []*domain.ShoppingList) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, l := range lists {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🛒 %s", truncate(l.Name, 25)),
				fmt.Sprintf("lshow:%d", l.ID),
			),
		))
		if len(rows) >= 10 {
			break
		}
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
