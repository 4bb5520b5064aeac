package service

import (
	"fmt"
	"strings"

	"github.com/mkorobov/remindbot/internal/domain"
	"github.com/mkorobov/remindbot/internal/storage"
)

type NoteService struct {
	storage *storage.Storage
}

func NewNoteService(s *storage.Storage) *NoteService {
	return &NoteService{storage: s}
}

func (s *NoteService) Create(ownerID int64, text string) (*domain.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("note text cannot be empty")
	}

	note := &domain.Note{
		OwnerID: ownerID,
		Text:    text,
	}

	if err := s.storage.CreateNote(note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	return note, nil
}

func (s *NoteService) List(ownerID int64) ([]*domain.Note, error) {
	return s.storage.ListNotesByOwner(ownerID)
}

func (s *NoteService) Delete(id, ownerID int64) (bool, error) {
	return s.storage.DeleteNote(id, ownerID)
}

func (s *NoteService) FormatNoteList(notes []*domain.Note) string {
	if len(notes) == 0 {
		return "Нет заметок"
	}

	var sb strings.Builder
	for _, n := range notes {
		sb.WriteString(fmt.Sprintf("📝 #%d %s\n", n.ID, n.Text))
	}
	return sb.String()
}
