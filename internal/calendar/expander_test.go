package calendar

import (
	"errors"
	"testing"
	"time"

	"orbit/internal/core"
)

func weeklyEvent() core.CalendarEvent {
	// Monday 2026-08-03 at 18:00, one hour.
	return core.CalendarEvent{
		ID:             1,
		Name:           "Gym",
		Start:          time.Date(2026, time.August, 3, 18, 0, 0, 0, time.UTC),
		End:            time.Date(2026, time.August, 3, 19, 0, 0, 0, time.UTC),
		RecurrenceRule: "FREQ=WEEKLY;BYDAY=MO,WE,FR",
		TypeID:         2,
	}
}

func TestOccursOnWeekly(t *testing.T) {
	event := weeklyEvent()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"anchor monday", time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC), true},
		{"wednesday", time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC), true},
		{"friday", time.Date(2026, time.August, 7, 0, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2026, time.August, 8, 0, 0, 0, 0, time.UTC), false},
		{"next week monday", time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC), true},
		{"before anchor", time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OccursOn(event, tt.date, nil)
			if err != nil {
				t.Fatalf("OccursOn returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("OccursOn(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestOccursOnExceptionSuppressesSingleDate(t *testing.T) {
	event := weeklyEvent()
	exceptions := []core.EventException{
		{EventID: 1, Date: time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)},
	}

	// The excepted Wednesday is gone.
	got, err := OccursOn(event, time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC), exceptions)
	if err != nil {
		t.Fatalf("OccursOn returned error: %v", err)
	}
	if got {
		t.Error("excepted date should not occur")
	}

	// The following Wednesday is untouched.
	got, err = OccursOn(event, time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC), exceptions)
	if err != nil {
		t.Fatalf("OccursOn returned error: %v", err)
	}
	if !got {
		t.Error("later occurrences must survive a single-date exception")
	}

	// An exception for a different event changes nothing.
	otherEvent := []core.EventException{{EventID: 99, Date: time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)}}
	got, err = OccursOn(event, time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC), otherEvent)
	if err != nil {
		t.Fatalf("OccursOn returned error: %v", err)
	}
	if !got {
		t.Error("exceptions are scoped to their own event")
	}
}

func TestOccursOnOneOffEvent(t *testing.T) {
	event := core.CalendarEvent{
		ID:    2,
		Name:  "Dentist",
		Start: time.Date(2026, time.September, 10, 14, 30, 0, 0, time.UTC),
		End:   time.Date(2026, time.September, 10, 15, 0, 0, 0, time.UTC),
	}

	got, err := OccursOn(event, time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("OccursOn returned error: %v", err)
	}
	if !got {
		t.Error("one-off event should occur on its own date")
	}

	got, err = OccursOn(event, time.Date(2026, time.September, 11, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("OccursOn returned error: %v", err)
	}
	if got {
		t.Error("one-off event should not occur on other dates")
	}
}

func TestExpandWindow(t *testing.T) {
	event := weeklyEvent()
	exceptions := []core.EventException{
		{EventID: 1, Date: time.Date(2026, time.August, 5, 0, 0, 0, 0, time.UTC)},
	}

	from := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.August, 9, 0, 0, 0, 0, time.UTC)

	occ, err := Expand(event, from, to, exceptions)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}

	// Mon, Fri; the Wednesday is excepted.
	if len(occ) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(occ))
	}
	wantFirst := time.Date(2026, time.August, 3, 18, 0, 0, 0, time.UTC)
	if !occ[0].Start.Equal(wantFirst) {
		t.Errorf("first start = %v, want %v", occ[0].Start, wantFirst)
	}
	if got := occ[0].End.Sub(occ[0].Start); got != time.Hour {
		t.Errorf("occurrence duration = %v, want 1h", got)
	}
	wantSecond := time.Date(2026, time.August, 7, 18, 0, 0, 0, time.UTC)
	if !occ[1].Start.Equal(wantSecond) {
		t.Errorf("second start = %v, want %v", occ[1].Start, wantSecond)
	}
}

func TestExpandOneOff(t *testing.T) {
	event := core.CalendarEvent{
		ID:    2,
		Name:  "Dentist",
		Start: time.Date(2026, time.September, 10, 14, 30, 0, 0, time.UTC),
		End:   time.Date(2026, time.September, 10, 15, 0, 0, 0, time.UTC),
	}

	from := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)

	occ, err := Expand(event, from, to, nil)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(occ) != 1 {
		t.Fatalf("occurrences = %d, want 1", len(occ))
	}

	occ, err = Expand(event, to.AddDate(0, 1, 0), to.AddDate(0, 2, 0), nil)
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(occ) != 0 {
		t.Errorf("occurrences outside window = %d, want 0", len(occ))
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    string
		wantErr bool
	}{
		{"empty rule is one-off", "", false},
		{"weekly", "FREQ=WEEKLY;BYDAY=MO,WE,FR", false},
		{"monthly by day", "FREQ=MONTHLY;BYMONTHDAY=15", false},
		{"garbage", "FREQ=SOMETIMES", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRule(tt.rule)
			if tt.wantErr && !errors.Is(err, core.ErrInvalidRule) {
				t.Errorf("ValidateRule(%q) = %v, want ErrInvalidRule", tt.rule, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateRule(%q) = %v, want nil", tt.rule, err)
			}
		})
	}
}
