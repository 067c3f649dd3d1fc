package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"orbit/internal/core"
)

// Occurrence is one concrete instance of an event on a specific date.
// Start and End carry the event's time of day on that date.
type Occurrence struct {
	EventID int64     `json:"eventId"`
	Name    string    `json:"name"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"allDay"`
	TypeID  int64     `json:"typeId"`
}

// ValidateRule checks that a recurrence rule parses. Empty rules are
// valid and mean a one-off event.
func ValidateRule(ruleStr string) error {
	if ruleStr == "" {
		return nil
	}
	if _, err := rrule.StrToROption(ruleStr); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRule, err)
	}
	return nil
}

// OccursOn reports whether the event has an occurrence on the given
// calendar date. Recurring events expand their rule anchored at the
// event start; dates listed in exceptions are suppressed without
// touching the rule itself.
func OccursOn(event core.CalendarEvent, date time.Time, exceptions []core.EventException) (bool, error) {
	day := truncateToDay(date)

	for _, ex := range exceptions {
		if ex.EventID == event.ID && sameDay(ex.Date, day) {
			return false, nil
		}
	}

	if !event.IsRecurring() {
		return sameDay(event.Start, day), nil
	}

	r, err := parseRule(event)
	if err != nil {
		return false, err
	}

	windowStart := day
	windowEnd := day.Add(24*time.Hour - time.Second)
	return len(r.Between(windowStart, windowEnd, true)) > 0, nil
}

// Expand lists every occurrence of the event within [from, to]
// inclusive, skipping excepted dates. One-off events yield at most one
// occurrence.
func Expand(event core.CalendarEvent, from, to time.Time, exceptions []core.EventException) ([]Occurrence, error) {
	excepted := make(map[string]bool, len(exceptions))
	for _, ex := range exceptions {
		if ex.EventID == event.ID {
			excepted[dayKey(ex.Date)] = true
		}
	}

	var starts []time.Time
	if event.IsRecurring() {
		r, err := parseRule(event)
		if err != nil {
			return nil, err
		}
		starts = r.Between(truncateToDay(from), truncateToDay(to).Add(24*time.Hour-time.Second), true)
	} else if !event.Start.Before(truncateToDay(from)) && !truncateToDay(event.Start).After(truncateToDay(to)) {
		starts = []time.Time{event.Start}
	}

	duration := event.End.Sub(event.Start)
	occurrences := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		if excepted[dayKey(s)] {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			EventID: event.ID,
			Name:    event.Name,
			Start:   s,
			End:     s.Add(duration),
			AllDay:  event.AllDay,
			TypeID:  event.TypeID,
		})
	}
	return occurrences, nil
}

// ExpandAll expands several events over the same window and returns the
// occurrences sorted by the storage order of events then by time within
// each event.
func ExpandAll(events []core.CalendarEvent, from, to time.Time, exceptions []core.EventException) ([]Occurrence, error) {
	all := []Occurrence{}
	for _, ev := range events {
		occ, err := Expand(ev, from, to, exceptions)
		if err != nil {
			return nil, fmt.Errorf("expand event %d: %w", ev.ID, err)
		}
		all = append(all, occ...)
	}
	return all, nil
}

func parseRule(event core.CalendarEvent) (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(event.RecurrenceRule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRule, err)
	}
	opt.Dtstart = event.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRule, err)
	}
	return r, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
