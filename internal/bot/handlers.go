package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkorobov/remindbot/internal/service"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	// Продолжение начатого диалога
	if conv := b.states.get(chatID); conv != nil {
		b.handleConversation(msg, conv)
		return
	}

	// Свободный текст вне диалога сохраняем как заметку
	note, err := b.noteService.Create(msg.From.ID, text)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}
	b.SendMessage(chatID, fmt.Sprintf("📝 Сохранил как заметку #%d\n\n/remind — если нужно напоминание", note.ID))
}

func (b *Bot) handleConversation(msg *tgbotapi.Message, conv *conversation) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch conv.step {
	case stepReminderText:
		conv.reminderText = text
		conv.step = stepReminderDate
		b.states.set(chatID, conv)
		b.SendMessage(chatID, "📅 Когда? Дата в формате ДД.ММ.ГГГГ, например 31.12.2026")

	case stepReminderDate:
		if _, err := time.ParseInLocation("02.01.2006", text, b.cfg.Timezone); err != nil {
			b.SendMessage(chatID, "Не понял дату. Формат: ДД.ММ.ГГГГ, например 31.12.2026")
			return
		}
		conv.reminderDate = text
		conv.step = stepReminderTime
		b.states.set(chatID, conv)
		b.SendMessage(chatID, "🕐 Во сколько? Время в формате ЧЧ:ММ, например 09:30")

	case stepReminderTime:
		fireAt, err := time.ParseInLocation("02.01.2006 15:04", conv.reminderDate+" "+text, b.cfg.Timezone)
		if err != nil {
			b.SendMessage(chatID, "Не понял время. Формат: ЧЧ:ММ, например 09:30")
			return
		}

		reminder, err := b.reminderService.Create(userID, chatID, conv.reminderText, fireAt)
		if errors.Is(err, service.ErrPastTime) {
			b.SendMessage(chatID, "Это время уже прошло. Введи другое время (ЧЧ:ММ)")
			return
		}
		if err != nil {
			log.Printf("Error creating reminder for chat %d: %v", chatID, err)
			b.states.clear(chatID)
			b.SendMessage(chatID, "❌ Не удалось создать напоминание, попробуй ещё раз: /remind")
			return
		}

		b.states.clear(chatID)
		b.SendMessage(chatID, fmt.Sprintf("✅ Напомню «%s» %s\n\n/cancel %d — отменить",
			reminder.Text, reminder.FireAt.In(b.cfg.Timezone).Format("02.01.2006 в 15:04"), reminder.ID))

	case stepListName:
		conv.listName = text
		conv.step = stepListDelimiter
		b.states.set(chatID, conv)
		b.SendMessage(chatID, "Каким символом разделять позиции? Например , или ;")

	case stepListDelimiter:
		conv.listDelimiter = text
		conv.step = stepListItems
		b.states.set(chatID, conv)
		b.SendMessage(chatID, fmt.Sprintf("Пришли позиции одной строкой через «%s»", text))

	case stepListItems:
		list, err := b.shoppingService.Create(userID, conv.listName, conv.listDelimiter, text)
		if err != nil {
			log.Printf("Error creating shopping list for chat %d: %v", chatID, err)
			b.states.clear(chatID)
			b.SendMessage(chatID, "❌ Не удалось создать список, попробуй ещё раз: /newlist")
			return
		}

		b.states.clear(chatID)
		items, _ := b.shoppingService.Items(list.ID)
		b.SendMessage(chatID, "✅ Список сохранён\n\n"+b.shoppingService.FormatList(list, items))

	default:
		b.states.clear(chatID)
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	data := callback.Data
	parts := strings.Split(data, ":")

	switch parts[0] {
	case "menu_remind":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.cmdRemind(chatID)

	case "menu_notes":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.cmdNotes(chatID, userID)

	case "menu_lists":
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		b.cmdLists(chatID, userID)

	case "rcancel":
		// rcancel:reminderID
		if len(parts) < 2 {
			return
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		if !b.ownsReminder(userID, id) {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Не найдено"))
			return
		}
		cancelled, err := b.reminderService.Cancel(id)
		if err != nil {
			log.Printf("Error cancelling reminder %d: %v", id, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Ошибка"))
			return
		}
		if cancelled {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Отменено"))
		} else {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Уже отменено"))
		}
		b.cmdReminders(chatID, userID)

	case "ndel":
		// ndel:noteID
		if len(parts) < 2 {
			return
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		deleted, err := b.noteService.Delete(id, userID)
		if err != nil {
			log.Printf("Error deleting note %d: %v", id, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Ошибка"))
			return
		}
		if deleted {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Удалено"))
		} else {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Не найдено"))
		}
		b.cmdNotes(chatID, userID)

	case "lshow":
		// lshow:listID
		if len(parts) < 2 {
			return
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		list, err := b.shoppingService.Get(id)
		if err != nil || list == nil || list.OwnerID != userID {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Не найдено"))
			return
		}
		items, err := b.shoppingService.Items(id)
		if err != nil {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Ошибка"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить список", fmt.Sprintf("ldel:%d", id)),
			),
		)
		b.SendMessageWithKeyboard(chatID, b.shoppingService.FormatList(list, items), kb)

	case "ldel":
		// ldel:listID
		if len(parts) < 2 {
			return
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		deleted, err := b.shoppingService.Delete(id, userID)
		if err != nil {
			log.Printf("Error deleting shopping list %d: %v", id, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Ошибка"))
			return
		}
		if deleted {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "🗑 Список удалён"))
		} else {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Не найдено"))
		}
	}
}
