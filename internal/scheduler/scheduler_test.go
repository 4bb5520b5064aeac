package scheduler

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkorobov/remindbot/internal/domain"
)

type fakeStore struct {
	mu        sync.Mutex
	reminders map[int64]*domain.Reminder
	nextID    int64
	getErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{reminders: make(map[int64]*domain.Reminder)}
}

func (f *fakeStore) add(chatID int64, text string, fireAt time.Time) *domain.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := &domain.Reminder{
		ID:      f.nextID,
		OwnerID: chatID,
		ChatID:  chatID,
		Text:    text,
		FireAt:  fireAt,
	}
	f.reminders[r.ID] = r
	return r
}

func (f *fakeStore) GetReminder(id int64) (*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.reminders[id], nil
}

func (f *fakeStore) DeleteReminder(id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reminders[id]; !ok {
		return false, nil
	}
	delete(f.reminders, id)
	return true, nil
}

func (f *fakeStore) ListAllReminders() ([]*domain.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Reminder
	for _, r := range f.reminders {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reminders)
}

type sentMessage struct {
	chatID int64
	text   string
	at     time.Time
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, at: time.Now()})
	return f.err
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestScheduler(store *fakeStore, sender *fakeSender) *Scheduler {
	s := New(store, time.UTC)
	s.SetSender(sender)
	return s
}

// waitUntil опрашивает условие, чтобы не завязываться на точные сны.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestFireDeliversAndDeletes(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "buy milk", time.Now().Add(50*time.Millisecond))
	s.Arm(r)

	if !waitUntil(t, time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("reminder was not delivered")
	}

	msgs := sender.messages()
	if msgs[0].chatID != 42 {
		t.Errorf("delivered to chat %d, want 42", msgs[0].chatID)
	}
	if msgs[0].text != "⏰ Напоминание: buy milk" {
		t.Errorf("unexpected message text: %q", msgs[0].text)
	}

	if !waitUntil(t, time.Second, func() bool { return store.count() == 0 }) {
		t.Error("record was not deleted after delivery")
	}

	// Ровно одна доставка
	time.Sleep(100 * time.Millisecond)
	if got := len(sender.messages()); got != 1 {
		t.Errorf("got %d deliveries, want 1", got)
	}
}

func TestCancelSuppressesDelivery(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "buy milk", time.Now().Add(200*time.Millisecond))
	s.Arm(r)

	cancelled, err := s.Cancel(r.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !cancelled {
		t.Error("first Cancel returned false, want true")
	}
	if store.count() != 0 {
		t.Error("record still in store after cancel")
	}
	if s.Armed(r.ID) {
		t.Error("timer still armed after cancel")
	}

	// Повторная отмена — no-op без ошибки
	cancelled, err = s.Cancel(r.ID)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if cancelled {
		t.Error("second Cancel returned true, want false")
	}

	time.Sleep(400 * time.Millisecond)
	if got := len(sender.messages()); got != 0 {
		t.Errorf("got %d deliveries after cancel, want 0", got)
	}
}

func TestTwoRemindersFireInOrder(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r1 := store.add(7, "first", time.Now().Add(50*time.Millisecond))
	r2 := store.add(7, "second", time.Now().Add(200*time.Millisecond))
	s.Arm(r1)
	s.Arm(r2)

	if !waitUntil(t, 2*time.Second, func() bool { return len(sender.messages()) == 2 }) {
		t.Fatalf("got %d deliveries, want 2", len(sender.messages()))
	}

	msgs := sender.messages()
	if msgs[0].text != "⏰ Напоминание: first" || msgs[1].text != "⏰ Напоминание: second" {
		t.Errorf("deliveries out of order: %q, %q", msgs[0].text, msgs[1].text)
	}
	if store.count() != 0 {
		t.Errorf("%d records left in store, want 0", store.count())
	}
}

func TestRehydrateFiresPastDueImmediately(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	// Запись, пролежавшая в базе до рестарта
	store.add(42, "stale", time.Now().Add(-5*time.Second))

	if err := s.Rehydrate(); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	if !waitUntil(t, time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("past-due reminder was not delivered on rehydrate")
	}
	if !waitUntil(t, time.Second, func() bool { return store.count() == 0 }) {
		t.Error("past-due record not removed")
	}
}

func TestRehydrateArmsFutureReminder(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "later", time.Now().Add(250*time.Millisecond))

	if err := s.Rehydrate(); err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}

	if !s.Armed(r.ID) {
		t.Error("future reminder not armed after rehydrate")
	}

	// Не должно сработать сразу
	time.Sleep(50 * time.Millisecond)
	if got := len(sender.messages()); got != 0 {
		t.Fatalf("fired too early: %d deliveries", got)
	}

	if !waitUntil(t, 2*time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("future reminder never fired")
	}
}

func TestArmTwiceKeepsSingleTimer(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "once", time.Now().Add(50*time.Millisecond))
	s.Arm(r)
	s.Arm(r)

	waitUntil(t, time.Second, func() bool { return store.count() == 0 })
	time.Sleep(100 * time.Millisecond)

	if got := len(sender.messages()); got != 1 {
		t.Errorf("got %d deliveries after double Arm, want 1", got)
	}
}

func TestDeliveryErrorStillDeletesRecord(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{err: errors.New("telegram down")}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "doomed", time.Now().Add(30*time.Millisecond))
	s.Arm(r)

	if !waitUntil(t, time.Second, func() bool { return store.count() == 0 }) {
		t.Error("record kept after failed delivery, want deleted")
	}
	if got := len(sender.messages()); got != 1 {
		t.Errorf("got %d delivery attempts, want 1", got)
	}
}

func TestFireSkipsConcurrentlyCancelledReminder(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "gone", time.Now().Add(30*time.Millisecond))
	s.Arm(r)

	// Запись удалена в обход планировщика — fire должен промолчать
	store.DeleteReminder(r.ID)

	time.Sleep(200 * time.Millisecond)
	if got := len(sender.messages()); got != 0 {
		t.Errorf("got %d deliveries for deleted record, want 0", got)
	}
}

func TestSweepPicksUpStrayReminder(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	// Просроченная запись без таймера (как после упавшего Arm)
	store.add(42, "stray", time.Now().Add(-time.Minute))

	s.sweep()

	if !waitUntil(t, time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("sweep did not fire stray reminder")
	}
	if !waitUntil(t, time.Second, func() bool { return store.count() == 0 }) {
		t.Error("stray record not removed after sweep")
	}
}

func TestStoreErrorAtFireKeepsRecordForSweep(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	r := store.add(42, "retry me", time.Now())
	store.mu.Lock()
	store.getErr = errors.New("db unreachable")
	store.mu.Unlock()

	s.Arm(r)
	time.Sleep(100 * time.Millisecond)

	if got := len(sender.messages()); got != 0 {
		t.Fatalf("delivered despite store error: %d messages", got)
	}
	if store.count() != 1 {
		t.Fatal("record dropped despite store error")
	}

	// База ожила — минутный обход добирает запись
	store.mu.Lock()
	store.getErr = nil
	store.mu.Unlock()
	s.sweep()

	if !waitUntil(t, time.Second, func() bool { return len(sender.messages()) == 1 }) {
		t.Fatal("sweep did not recover reminder after store error")
	}
}

func TestSweepIgnoresArmedAndFutureReminders(t *testing.T) {
	store := newFakeStore()
	sender := &fakeSender{}
	s := newTestScheduler(store, sender)
	defer s.Stop()

	store.add(42, "future", time.Now().Add(time.Hour))
	armed := store.add(42, "armed", time.Now().Add(time.Hour))
	s.Arm(armed)

	s.sweep()

	time.Sleep(100 * time.Millisecond)
	if got := len(sender.messages()); got != 0 {
		t.Errorf("sweep fired %d reminders, want 0", got)
	}
	if store.count() != 2 {
		t.Errorf("%d records left, want 2", store.count())
	}
}
