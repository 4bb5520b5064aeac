package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mkorobov/remindbot/internal/domain"
	"github.com/mkorobov/remindbot/internal/scheduler"
	"github.com/mkorobov/remindbot/internal/storage"
)

// ErrPastTime — запрошенное время не в будущем. UI должен переспросить,
// до отправки дело не доходит.
var ErrPastTime = errors.New("reminder time must be in the future")

type ReminderService struct {
	storage   *storage.Storage
	scheduler *scheduler.Scheduler
	timezone  *time.Location
}

func NewReminderService(s *storage.Storage, sched *scheduler.Scheduler, tz *time.Location) *ReminderService {
	return &ReminderService{
		storage:   s,
		scheduler: sched,
		timezone:  tz,
	}
}

// Create сохраняет напоминание и взводит таймер. Если запись удалась, а
// таймер нет — откат не делаем: строка в базе, её поднимет Rehydrate или
// минутный обход планировщика.
func (s *ReminderService) Create(ownerID, chatID int64, text string, fireAt time.Time) (*domain.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("reminder text cannot be empty")
	}

	if !fireAt.After(time.Now()) {
		return nil, ErrPastTime
	}

	reminder := &domain.Reminder{
		OwnerID: ownerID,
		ChatID:  chatID,
		Text:    text,
		FireAt:  fireAt,
	}

	if err := s.storage.CreateReminder(reminder); err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	s.scheduler.Arm(reminder)

	log.Printf("Scheduled reminder %d for %s", reminder.ID, fireAt.In(s.timezone).Format("02.01.2006 15:04"))
	return reminder, nil
}

// Cancel возвращает true только если живая запись существовала.
// Повторная отмена того же id — безобидный no-op с false.
func (s *ReminderService) Cancel(id int64) (bool, error) {
	return s.scheduler.Cancel(id)
}

func (s *ReminderService) List(ownerID int64) ([]*domain.Reminder, error) {
	return s.storage.ListRemindersByOwner(ownerID)
}

func (s *ReminderService) ListAll() ([]*domain.Reminder, error) {
	return s.storage.ListAllReminders()
}

func (s *ReminderService) FormatReminderList(reminders []*domain.Reminder) string {
	if len(reminders) == 0 {
		return "Нет напоминаний"
	}

	var sb strings.Builder
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("⏰ #%d %s (%s)\n",
			r.ID, r.Text, r.FireAt.In(s.timezone).Format("02.01 15:04")))
	}
	return sb.String()
}
