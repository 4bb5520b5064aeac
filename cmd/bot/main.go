package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkorobov/remindbot/config"
	"github.com/mkorobov/remindbot/internal/bot"
	"github.com/mkorobov/remindbot/internal/scheduler"
	"github.com/mkorobov/remindbot/internal/service"
	"github.com/mkorobov/remindbot/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	sched := scheduler.New(store, cfg.Timezone)

	reminderSvc := service.NewReminderService(store, sched, cfg.Timezone)
	noteSvc := service.NewNoteService(store)
	shoppingSvc := service.NewShoppingService(store)
	exportSvc := service.NewExportService(cfg.Timezone)

	tgBot, err := bot.New(cfg, reminderSvc, noteSvc, shoppingSvc, exportSvc)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	sched.SetSender(tgBot)

	// Восстановление таймеров из базы строго до приёма новых команд
	if err := sched.Rehydrate(); err != nil {
		log.Fatalf("Failed to rehydrate reminders: %v", err)
	}

	if cfg.WebhookURL != "" {
		if err := tgBot.SetupWebhook(); err != nil {
			log.Fatalf("Failed to setup webhook: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("RemindBot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("RemindBot stopped")
}
