package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string
	AdminID        int64
	DatabaseDriver string // sqlite3 или postgres
	DatabaseDSN    string
	Timezone       *time.Location
	WebhookURL     string
	ServerPort     string
}

func Load() (*Config, error) {
	// .env опционален, в проде всё приходит из окружения
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	var adminID int64
	if a := os.Getenv("ADMIN_TELEGRAM_ID"); a != "" {
		var err error
		adminID, err = strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a number")
		}
	}

	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		if driver == "postgres" {
			return nil, fmt.Errorf("DATABASE_DSN is required for postgres")
		}
		dsn = "./data/remindbot.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Moscow"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	webhookURL := os.Getenv("WEBHOOK_URL")

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	return &Config{
		TelegramToken:  token,
		AdminID:        adminID,
		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		Timezone:       tz,
		WebhookURL:     webhookURL,
		ServerPort:     serverPort,
	}, nil
}

func (c *Config) IsAdmin(telegramID int64) bool {
	return c.AdminID != 0 && telegramID == c.AdminID
}
