package bot

import "sync"

// Шаги многошаговых диалогов: сбор напоминания (текст → дата → время)
// и списка покупок (название → разделитель → позиции).
type step int

const (
	stepReminderText step = iota + 1
	stepReminderDate
	stepReminderTime
	stepListName
	stepListDelimiter
	stepListItems
)

// conversation — состояние одного диалога, ключуется по chat id.
// Живёт только в памяти: после рестарта пользователь начинает диалог заново.
type conversation struct {
	step step

	reminderText string
	reminderDate string // DD.MM.YYYY

	listName      string
	listDelimiter string
}

type stateMap struct {
	mu sync.Mutex
	m  map[int64]*conversation
}

func newStateMap() *stateMap {
	return &stateMap{m: make(map[int64]*conversation)}
}

func (s *stateMap) get(chatID int64) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[chatID]
}

func (s *stateMap) set(chatID int64, c *conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = c
}

func (s *stateMap) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
