package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/mkorobov/remindbot/internal/domain"
)

// ExportService собирает напоминания пользователя в iCalendar-файл,
// чтобы их можно было импортировать в любой календарь.
type ExportService struct {
	timezone *time.Location
}

func NewExportService(tz *time.Location) *ExportService {
	return &ExportService{timezone: tz}
}

func (s *ExportService) RemindersICS(reminders []*domain.Reminder) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//RemindBot//Reminders//RU")

	now := time.Now().UTC()
	for _, r := range reminders {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("reminder-%d@remindbot", r.ID))
		event.Props.SetText(ical.PropSummary, r.Text)
		event.Props.SetText(ical.PropDescription,
			"Напоминание на "+r.FireAt.In(s.timezone).Format("02.01.2006 15:04"))
		event.Props.SetDateTime(ical.PropDateTimeStart, r.FireAt.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, now)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
