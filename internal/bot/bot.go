package bot

import (
	"context"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkorobov/remindbot/config"
	"github.com/mkorobov/remindbot/internal/service"
)

type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.Config
	reminderService *service.ReminderService
	noteService     *service.NoteService
	shoppingService *service.ShoppingService
	exportService   *service.ExportService
	states          *stateMap
	server          *http.Server
}

func New(cfg *config.Config, reminderSvc *service.ReminderService, noteSvc *service.NoteService, shoppingSvc *service.ShoppingService, exportSvc *service.ExportService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", api.Self.UserName)

	bot := &Bot{
		api:             api,
		cfg:             cfg,
		reminderService: reminderSvc,
		noteService:     noteSvc,
		shoppingService: shoppingSvc,
		exportService:   exportSvc,
		states:          newStateMap(),
	}

	bot.setCommands()

	return bot, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "remind", Description: "⏰ Новое напоминание"},
		{Command: "reminders", Description: "🔔 Мои напоминания"},
		{Command: "note", Description: "📝 Новая заметка"},
		{Command: "notes", Description: "📋 Мои заметки"},
		{Command: "newlist", Description: "🛒 Новый список покупок"},
		{Command: "lists", Description: "🛍 Мои списки"},
		{Command: "export", Description: "📅 Экспорт напоминаний в календарь"},
		{Command: "help", Description: "❓ Справка"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

func (b *Bot) SetupWebhook() error {
	webhookURL := b.cfg.WebhookURL + "/bot"

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}

	if info.LastErrorDate != 0 {
		log.Printf("Webhook last error: %s", info.LastErrorMessage)
	}

	log.Printf("Webhook set to: %s", webhookURL)
	return nil
}

// Start запускает приём обновлений: webhook, если задан WEBHOOK_URL,
// иначе long polling.
func (b *Bot) Start(ctx context.Context) error {
	var updates tgbotapi.UpdatesChannel

	if b.cfg.WebhookURL != "" {
		updates = b.api.ListenForWebhook("/bot")

		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		b.server = &http.Server{
			Addr:    ":" + b.cfg.ServerPort,
			Handler: nil, // DefaultServeMux
		}

		go func() {
			log.Printf("Starting webhook server on :%s", b.cfg.ServerPort)
			if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP server error: %v", err)
			}
		}()
	} else {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates = b.api.GetUpdatesChan(u)
		log.Println("Starting long polling")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) Stop(ctx context.Context) error {
	if b.server != nil {
		return b.server.Shutdown(ctx)
	}
	b.api.StopReceivingUpdates()
	return nil
}

// SendMessage реализует scheduler.MessageSender.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = keyboard
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) SendDocument(chatID int64, name string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := b.api.Send(doc)
	return err
}
