package domain

import "time"

// ShoppingList — именованный список покупок. Элементы хранятся отдельными
// строками, чтобы их можно было удалять по одному.
type ShoppingList struct {
	ID        int64
	OwnerID   int64
	Name      string
	CreatedAt time.Time
}

type ShoppingItem struct {
	ID        int64
	ListID    int64
	Text      string
	CreatedAt time.Time
}
