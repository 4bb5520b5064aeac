package domain

import "time"

// Reminder — одноразовое напоминание. Запись живёт в базе от создания
// до доставки или отмены, промежуточных состояний нет.
type Reminder struct {
	ID        int64
	OwnerID   int64
	ChatID    int64
	Text      string
	FireAt    time.Time
	CreatedAt time.Time
}
