package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkorobov/remindbot/internal/domain"
)

type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// ReminderStore — срез операций хранилища, нужных планировщику.
// *storage.Storage его реализует; в тестах подставляется фейк.
type ReminderStore interface {
	GetReminder(id int64) (*domain.Reminder, error)
	DeleteReminder(id int64) (bool, error)
	ListAllReminders() ([]*domain.Reminder, error)
}

// Scheduler держит по одному взведённому таймеру на живое напоминание.
// База — источник истины: таймеры всегда можно перестроить через Rehydrate,
// а минутный cron-обход подбирает записи, оставшиеся без таймера.
type Scheduler struct {
	store  ReminderStore
	sender MessageSender
	cron   *cron.Cron
	now    func() time.Time

	mu     sync.Mutex
	timers map[int64]*time.Timer
}

func New(store ReminderStore, tz *time.Location) *Scheduler {
	return &Scheduler{
		store:  store,
		cron:   cron.New(cron.WithLocation(tz)),
		now:    time.Now,
		timers: make(map[int64]*time.Timer),
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Страховочный обход: напоминания, у которых по какой-то причине нет
	// таймера (arm упал после записи в базу), добираются раз в минуту.
	if _, err := s.cron.AddFunc("* * * * *", s.sweep); err != nil {
		return fmt.Errorf("add sweep job: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (%d timers armed)", s.timerCount())

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	log.Println("Scheduler stopped")
}

// Arm взводит одноразовый таймер на fire_at. Просроченное напоминание
// срабатывает сразу — опоздать можно, потерять нельзя. Повторный Arm
// для уже взведённого id — no-op.
func (s *Scheduler) Arm(r *domain.Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[r.ID]; ok {
		return
	}

	d := r.FireAt.Sub(s.now())
	if d < 0 {
		d = 0
	}

	id := r.ID
	s.timers[id] = time.AfterFunc(d, func() { s.fire(id) })
}

// Cancel снимает таймер, если он есть, и в любом случае удаляет запись:
// таймер мог уже сработать и проиграть гонку с отменой. Возвращает,
// была ли удалена строка.
func (s *Scheduler) Cancel(id int64) (bool, error) {
	s.mu.Lock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	deleted, err := s.store.DeleteReminder(id)
	if err != nil {
		return false, fmt.Errorf("delete reminder %d: %w", id, err)
	}
	return deleted, nil
}

// fire выполняется в горутине таймера. Запись удаляется независимо от
// исхода отправки: зависшее навсегда напоминание хуже потерянного.
func (s *Scheduler) fire(id int64) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	r, err := s.store.GetReminder(id)
	if err != nil {
		// Запись остаётся в базе, sweep или рестарт доберут её позже.
		log.Printf("Error loading reminder %d at fire time: %v", id, err)
		return
	}
	if r == nil {
		// Уже отменено или доставлено.
		return
	}

	if s.sender != nil {
		if err := s.sender.SendMessage(r.ChatID, "⏰ Напоминание: "+r.Text); err != nil {
			log.Printf("Error sending reminder %d to chat %d: %v", id, r.ChatID, err)
		}
	}

	if _, err := s.store.DeleteReminder(id); err != nil {
		// Возможен повторный показ после рестарта — осознанно принятый
		// компромисс, см. DESIGN.md.
		log.Printf("Error deleting reminder %d after delivery: %v", id, err)
	}
}

// Rehydrate перечитывает все живые напоминания и взводит таймеры заново.
// Вызывается один раз на старте процесса, до приёма новых команд.
// Просроченные записи Arm отправит немедленно.
func (s *Scheduler) Rehydrate() error {
	reminders, err := s.store.ListAllReminders()
	if err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	for _, r := range reminders {
		s.Arm(r)
	}

	log.Printf("Rehydrated %d reminders", len(reminders))
	return nil
}

func (s *Scheduler) sweep() {
	reminders, err := s.store.ListAllReminders()
	if err != nil {
		log.Printf("Error sweeping reminders: %v", err)
		return
	}

	now := s.now()
	for _, r := range reminders {
		if r.FireAt.After(now) {
			continue
		}
		s.mu.Lock()
		_, armed := s.timers[r.ID]
		s.mu.Unlock()
		if armed {
			continue
		}
		log.Printf("Sweep: reminder %d overdue with no timer, firing", r.ID)
		s.Arm(r)
	}
}

// Armed сообщает, взведён ли таймер для id.
func (s *Scheduler) Armed(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

func (s *Scheduler) timerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
