package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mkorobov/remindbot/internal/domain"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Storage struct {
	db     *sql.DB
	driver string
}

// New открывает базу и накатывает миграции. dsn — путь к файлу для sqlite3
// или строка подключения для postgres.
func New(driver, dsn string) (*Storage, error) {
	switch driver {
	case DriverSQLite:
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn += "?_foreign_keys=on"
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME"
	if s.driver == DriverPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
	}

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS reminders (
			id %s,
			owner_id BIGINT NOT NULL,
			chat_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			fire_at %s NOT NULL,
			created_at %s DEFAULT CURRENT_TIMESTAMP
		)`, serial, ts, ts),
		`CREATE INDEX IF NOT EXISTS idx_reminders_owner_id ON reminders(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reminders_fire_at ON reminders(fire_at)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS notes (
			id %s,
			owner_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			created_at %s DEFAULT CURRENT_TIMESTAMP
		)`, serial, ts),
		`CREATE INDEX IF NOT EXISTS idx_notes_owner_id ON notes(owner_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS shopping_lists (
			id %s,
			owner_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			created_at %s DEFAULT CURRENT_TIMESTAMP
		)`, serial, ts),
		`CREATE INDEX IF NOT EXISTS idx_shopping_lists_owner_id ON shopping_lists(owner_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS shopping_items (
			id %s,
			list_id BIGINT NOT NULL,
			text TEXT NOT NULL,
			created_at %s DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (list_id) REFERENCES shopping_lists(id) ON DELETE CASCADE
		)`, serial, ts),
		`CREATE INDEX IF NOT EXISTS idx_shopping_items_list_id ON shopping_items(list_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// q переводит `?`-плейсхолдеры в `$N` для postgres. Для sqlite запрос
// возвращается как есть.
func (s *Storage) q(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// === Reminders ===

func (s *Storage) CreateReminder(r *domain.Reminder) error {
	// RETURNING работает и в sqlite (>=3.35), и в postgres; lib/pq
	// не умеет LastInsertId.
	err := s.db.QueryRow(
		s.q(`INSERT INTO reminders (owner_id, chat_id, text, fire_at) VALUES (?, ?, ?, ?) RETURNING id`),
		r.OwnerID, r.ChatID, r.Text, r.FireAt.UTC(),
	).Scan(&r.ID)
	if err != nil {
		return err
	}
	r.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetReminder(id int64) (*domain.Reminder, error) {
	r := &domain.Reminder{}
	err := s.db.QueryRow(
		s.q(`SELECT id, owner_id, chat_id, text, fire_at, created_at FROM reminders WHERE id = ?`),
		id,
	).Scan(&r.ID, &r.OwnerID, &r.ChatID, &r.Text, &r.FireAt, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func (s *Storage) ListRemindersByOwner(ownerID int64) ([]*domain.Reminder, error) {
	return s.listReminders(
		s.q(`SELECT id, owner_id, chat_id, text, fire_at, created_at
		 FROM reminders WHERE owner_id = ? ORDER BY fire_at ASC, id ASC`),
		ownerID,
	)
}

func (s *Storage) ListAllReminders() ([]*domain.Reminder, error) {
	return s.listReminders(
		`SELECT id, owner_id, chat_id, text, fire_at, created_at
		 FROM reminders ORDER BY fire_at ASC, id ASC`,
	)
}

func (s *Storage) listReminders(query string, args ...any) ([]*domain.Reminder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*domain.Reminder
	for rows.Next() {
		r := &domain.Reminder{}
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.ChatID, &r.Text, &r.FireAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeleteReminder возвращает false, если строки уже нет. Удаление
// несуществующего id — не ошибка: отмена и доставка могут гоняться.
func (s *Storage) DeleteReminder(id int64) (bool, error) {
	res, err := s.db.Exec(s.q(`DELETE FROM reminders WHERE id = ?`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// === Notes ===

func (s *Storage) CreateNote(n *domain.Note) error {
	err := s.db.QueryRow(
		s.q(`INSERT INTO notes (owner_id, text) VALUES (?, ?) RETURNING id`),
		n.OwnerID, n.Text,
	).Scan(&n.ID)
	if err != nil {
		return err
	}
	n.CreatedAt = time.Now()
	return nil
}

func (s *Storage) ListNotesByOwner(ownerID int64) ([]*domain.Note, error) {
	rows, err := s.db.Query(
		s.q(`SELECT id, owner_id, text, created_at FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id DESC`),
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n := &domain.Note{}
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Storage) DeleteNote(id, ownerID int64) (bool, error) {
	res, err := s.db.Exec(s.q(`DELETE FROM notes WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// === Shopping lists ===

func (s *Storage) CreateShoppingList(l *domain.ShoppingList, items []string) error {
	err := s.db.QueryRow(
		s.q(`INSERT INTO shopping_lists (owner_id, name) VALUES (?, ?) RETURNING id`),
		l.OwnerID, l.Name,
	).Scan(&l.ID)
	if err != nil {
		return err
	}
	l.CreatedAt = time.Now()

	for _, item := range items {
		if _, err := s.db.Exec(
			s.q(`INSERT INTO shopping_items (list_id, text) VALUES (?, ?)`),
			l.ID, item,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) GetShoppingList(id int64) (*domain.ShoppingList, error) {
	l := &domain.ShoppingList{}
	err := s.db.QueryRow(
		s.q(`SELECT id, owner_id, name, created_at FROM shopping_lists WHERE id = ?`),
		id,
	).Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (s *Storage) ListShoppingListsByOwner(ownerID int64) ([]*domain.ShoppingList, error) {
	return s.listShoppingLists(
		s.q(`SELECT id, owner_id, name, created_at FROM shopping_lists WHERE owner_id = ? ORDER BY created_at DESC, id DESC`),
		ownerID,
	)
}

func (s *Storage) ListAllShoppingLists() ([]*domain.ShoppingList, error) {
	return s.listShoppingLists(
		`SELECT id, owner_id, name, created_at FROM shopping_lists ORDER BY owner_id ASC, id ASC`,
	)
}

func (s *Storage) listShoppingLists(query string, args ...any) ([]*domain.ShoppingList, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []*domain.ShoppingList
	for rows.Next() {
		l := &domain.ShoppingList{}
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *Storage) ListShoppingItems(listID int64) ([]*domain.ShoppingItem, error) {
	rows, err := s.db.Query(
		s.q(`SELECT id, list_id, text, created_at FROM shopping_items WHERE list_id = ? ORDER BY id ASC`),
		listID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.ShoppingItem
	for rows.Next() {
		it := &domain.ShoppingItem{}
		if err := rows.Scan(&it.ID, &it.ListID, &it.Text, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Storage) DeleteShoppingList(id, ownerID int64) (bool, error) {
	// foreign_keys=on, элементы уходят каскадом
	res, err := s.db.Exec(s.q(`DELETE FROM shopping_lists WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) DeleteShoppingItem(id int64) (bool, error) {
	res, err := s.db.Exec(s.q(`DELETE FROM shopping_items WHERE id = ?`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
