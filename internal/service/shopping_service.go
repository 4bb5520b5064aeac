package service

import (
	"fmt"
	"strings"

	"github.com/mkorobov/remindbot/internal/domain"
	"github.com/mkorobov/remindbot/internal/storage"
)

type ShoppingService struct {
	storage *storage.Storage
}

func NewShoppingService(s *storage.Storage) *ShoppingService {
	return &ShoppingService{storage: s}
}

// Create разбивает строку items по разделителю и сохраняет список.
// Пустые куски (двойной разделитель, хвостовой) выкидываются.
func (s *ShoppingService) Create(ownerID int64, name, delimiter, items string) (*domain.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("list name cannot be empty")
	}
	if delimiter == "" {
		delimiter = ","
	}

	var parsed []string
	for _, part := range strings.Split(items, delimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			parsed = append(parsed, part)
		}
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("list must contain at least one item")
	}

	list := &domain.ShoppingList{
		OwnerID: ownerID,
		Name:    name,
	}

	if err := s.storage.CreateShoppingList(list, parsed); err != nil {
		return nil, fmt.Errorf("create shopping list: %w", err)
	}

	return list, nil
}

func (s *ShoppingService) List(ownerID int64) ([]*domain.ShoppingList, error) {
	return s.storage.ListShoppingListsByOwner(ownerID)
}

func (s *ShoppingService) ListAll() ([]*domain.ShoppingList, error) {
	return s.storage.ListAllShoppingLists()
}

func (s *ShoppingService) Get(id int64) (*domain.ShoppingList, error) {
	return s.storage.GetShoppingList(id)
}

func (s *ShoppingService) Items(listID int64) ([]*domain.ShoppingItem, error) {
	return s.storage.ListShoppingItems(listID)
}

func (s *ShoppingService) Delete(id, ownerID int64) (bool, error) {
	return s.storage.DeleteShoppingList(id, ownerID)
}

func (s *ShoppingService) DeleteItem(itemID int64) (bool, error) {
	return s.storage.DeleteShoppingItem(itemID)
}

func (s *ShoppingService) FormatList(list *domain.ShoppingList, items []*domain.ShoppingItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 <b>%s</b>\n\n", list.Name))
	if len(items) == 0 {
		sb.WriteString("Список пуст")
		return sb.String()
	}
	for _, it := range items {
		sb.WriteString(fmt.Sprintf("• %s\n", it.Text))
	}
	return sb.String()
}
