package service

import (
	"path/filepath"
	"testing"

	"github.com/mkorobov/remindbot/internal/storage"
)

func newTestShoppingService(t *testing.T) *ShoppingService {
	t.Helper()
	store, err := storage.New(storage.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewShoppingService(store)
}

func TestShoppingCreateSplitsItems(t *testing.T) {
	svc := newTestShoppingService(t)

	list, err := svc.Create(1, "Продукты", ",", "молоко, хлеб ,  сыр,")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := svc.Items(list.ID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	want := []string{"молоко", "хлеб", "сыр"}
	for i, it := range items {
		if it.Text != want[i] {
			t.Errorf("item %d = %q, want %q", i, it.Text, want[i])
		}
	}
}

func TestShoppingCreateCustomDelimiter(t *testing.T) {
	svc := newTestShoppingService(t)

	list, err := svc.Create(1, "Стройка", ";", "доски; гвозди")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := svc.Items(list.ID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}

func TestShoppingCreateValidation(t *testing.T) {
	svc := newTestShoppingService(t)

	if _, err := svc.Create(1, "  ", ",", "молоко"); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := svc.Create(1, "Пустой", ",", " , , "); err == nil {
		t.Error("list without items accepted")
	}
}

func TestShoppingDeleteOwnerScoped(t *testing.T) {
	svc := newTestShoppingService(t)

	list, err := svc.Create(1, "Продукты", ",", "молоко")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := svc.Delete(list.ID, 99)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("deleted another owner's list")
	}

	deleted, err = svc.Delete(list.ID, 1)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("owner could not delete own list")
	}
}
