package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	// Любая команда обрывает начатый диалог
	b.states.clear(chatID)

	switch cmd {
	case "start":
		b.cmdStart(chatID, msg.From.FirstName)
	case "help":
		b.cmdHelp(chatID)
	case "remind":
		b.cmdRemind(chatID)
	case "reminders":
		b.cmdReminders(chatID, userID)
	case "cancel":
		b.cmdCancel(chatID, userID, args)
	case "note":
		b.cmdNote(chatID, userID, args)
	case "notes":
		b.cmdNotes(chatID, userID)
	case "delnote":
		b.cmdDelNote(chatID, userID, args)
	case "newlist":
		b.cmdNewList(chatID)
	case "lists":
		b.cmdLists(chatID, userID)
	case "export":
		b.cmdExport(chatID, userID)
	case "all":
		b.cmdAdminReminders(chatID, userID)
	case "alllists":
		b.cmdAdminLists(chatID, userID)
	default:
		b.SendMessage(chatID, "Неизвестная команда. /help для списка команд")
	}
}

func (b *Bot) cmdStart(chatID int64, name string) {
	text := fmt.Sprintf("👋 Привет, %s!\n\nЯ храню заметки, списки покупок и напоминания.\n\n/help — список команд", name)
	b.SendMessageWithKeyboard(chatID, text, mainMenuKeyboard())
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Команды:</b>

<b>Напоминания</b>
/remind — создать напоминание
/reminders — список напоминаний
/cancel ID — отменить напоминание

<b>Заметки</b>
/note текст — добавить заметку
/notes — список заметок
/delnote ID — удалить заметку

<b>Покупки</b>
/newlist — создать список покупок
/lists — мои списки

<b>Другое</b>
/export — напоминания файлом .ics
/help — эта справка`

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdRemind(chatID int64) {
	b.states.set(chatID, &conversation{step: stepReminderText})
	b.SendMessage(chatID, "✍️ О чём напомнить?")
}

func (b *Bot) cmdReminders(chatID, userID int64) {
	reminders, err := b.reminderService.List(userID)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	text := "<b>🔔 Напоминания:</b>\n\n" + b.reminderService.FormatReminderList(reminders)
	if kb := reminderListKeyboard(reminders); kb != nil {
		b.SendMessageWithKeyboard(chatID, text, *kb)
	} else {
		b.SendMessage(chatID, text)
	}
}

func (b *Bot) cmdCancel(chatID, userID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Укажи ID напоминания: /cancel 1")
		return
	}

	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.SendMessage(chatID, "Неверный ID напоминания")
		return
	}

	if !b.ownsReminder(userID, id) {
		b.SendMessage(chatID, "❌ Напоминание не найдено")
		return
	}

	cancelled, err := b.reminderService.Cancel(id)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}
	if !cancelled {
		b.SendMessage(chatID, "Напоминание уже отменено или доставлено")
		return
	}

	b.SendMessage(chatID, "🗑 Напоминание отменено")
}

// ownsReminder проверяет, что напоминание принадлежит пользователю,
// прежде чем дать его отменить.
func (b *Bot) ownsReminder(userID, id int64) bool {
	reminders, err := b.reminderService.List(userID)
	if err != nil {
		return false
	}
	for _, r := range reminders {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (b *Bot) cmdNote(chatID, userID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Укажи текст заметки: /note Купить молоко")
		return
	}

	note, err := b.noteService.Create(userID, args)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	b.SendMessage(chatID, fmt.Sprintf("📝 Заметка #%d сохранена", note.ID))
}

func (b *Bot) cmdNotes(chatID, userID int64) {
	notes, err := b.noteService.List(userID)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	text := "<b>📋 Заметки:</b>\n\n" + b.noteService.FormatNoteList(notes)
	if kb := noteListKeyboard(notes); kb != nil {
		b.SendMessageWithKeyboard(chatID, text, *kb)
	} else {
		b.SendMessage(chatID, text)
	}
}

func (b *Bot) cmdDelNote(chatID, userID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Укажи ID заметки: /delnote 1")
		return
	}

	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		b.SendMessage(chatID, "Неверный ID заметки")
		return
	}

	deleted, err := b.noteService.Delete(id, userID)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}
	if !deleted {
		b.SendMessage(chatID, "❌ Заметка не найдена")
		return
	}

	b.SendMessage(chatID, "🗑 Заметка удалена")
}

func (b *Bot) cmdNewList(chatID int64) {
	b.states.set(chatID, &conversation{step: stepListName})
	b.SendMessage(chatID, "🛒 Как назвать список?")
}

func (b *Bot) cmdLists(chatID, userID int64) {
	lists, err := b.shoppingService.List(userID)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	if len(lists) == 0 {
		b.SendMessage(chatID, "Нет списков. /newlist — создать")
		return
	}

	kb := shoppingListsKeyboard(lists)
	b.SendMessageWithKeyboard(chatID, "<b>🛍 Списки покупок:</b>", kb)
}

func (b *Bot) cmdExport(chatID, userID int64) {
	reminders, err := b.reminderService.List(userID)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}
	if len(reminders) == 0 {
		b.SendMessage(chatID, "Нет напоминаний для экспорта")
		return
	}

	data, err := b.exportService.RemindersICS(reminders)
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка экспорта: "+err.Error())
		return
	}

	if err := b.SendDocument(chatID, "reminders.ics", data); err != nil {
		b.SendMessage(chatID, "❌ Не удалось отправить файл: "+err.Error())
	}
}

// === Админка ===

func (b *Bot) cmdAdminReminders(chatID, userID int64) {
	if !b.cfg.IsAdmin(userID) {
		b.SendMessage(chatID, "⛔ Нет доступа")
		return
	}

	reminders, err := b.reminderService.ListAll()
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	if len(reminders) == 0 {
		b.SendMessage(chatID, "Нет напоминаний")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>⏰ Все напоминания:</b>\n\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("#%d [%d] %s (%s)\n",
			r.ID, r.OwnerID, truncate(r.Text, 30), r.FireAt.In(b.cfg.Timezone).Format("02.01 15:04")))
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdAdminLists(chatID, userID int64) {
	if !b.cfg.IsAdmin(userID) {
		b.SendMessage(chatID, "⛔ Нет доступа")
		return
	}

	lists, err := b.shoppingService.ListAll()
	if err != nil {
		b.SendMessage(chatID, "❌ Ошибка: "+err.Error())
		return
	}

	if len(lists) == 0 {
		b.SendMessage(chatID, "Нет списков")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>🛍 Все списки:</b>\n\n")
	for _, l := range lists {
		sb.WriteString(fmt.Sprintf("#%d [%d] %s\n", l.ID, l.OwnerID, l.Name))
	}
	b.SendMessage(chatID, sb.String())
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
