package http

import (
	"net/http"
	"time"

	"orbit/internal/calendar"
	"orbit/internal/core"
)

type eventResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AllDay         bool      `json:"allDay"`
	RecurrenceRule string    `json:"recurrenceRule,omitempty"`
	TypeID         int64     `json:"typeId"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, eventResponse{
			ID:             ev.ID,
			Name:           ev.Name,
			Start:          ev.Start,
			End:            ev.End,
			AllDay:         ev.AllDay,
			RecurrenceRule: ev.RecurrenceRule,
			TypeID:         ev.TypeID,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createEventRequest struct {
	Name           string    `json:"name"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	AllDay         bool      `json:"allDay"`
	RecurrenceRule string    `json:"recurrenceRule"`
	TypeID         int64     `json:"typeId"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ev := core.CalendarEvent{
		Name:           req.Name,
		Start:          req.Start,
		End:            req.End,
		AllDay:         req.AllDay,
		RecurrenceRule: req.RecurrenceRule,
		TypeID:         req.TypeID,
	}
	if err := ev.Validate(); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}
	if err := calendar.ValidateRule(ev.RecurrenceRule); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateEvent(r.Context(), ev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type patchEventRequest struct {
	RecurrenceRule string `json:"recurrenceRule"`
}

// handlePatchEvent rewrites the base recurrence rule. The change applies
// to the whole series; single-occurrence edits go through exceptions.
func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req patchEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := calendar.ValidateRule(req.RecurrenceRule); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.UpdateEventRule(r.Context(), id, req.RecurrenceRule); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEventOccurrences expands every event over the [from, to] window,
// recurring rules included, skipping excepted dates.
func (s *Server) handleEventOccurrences(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if to.Before(from) {
		writeError(w, r, badRequest("to must not be before from"))
		return
	}

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	exceptions, err := s.store.ListEventExceptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	occurrences, err := calendar.ExpandAll(events, from, to, exceptions)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occurrences)
}

// handleDeleteEvent removes the whole event and, through the schema's
// cascade, all of its exceptions.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteEvent(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteOccurrence suppresses a single occurrence of a recurring
// event by recording an exception date. The base event and its rule are
// left untouched.
func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Confirm the event exists so a typoed id returns 404 instead of a
	// silent exception row.
	if _, err := s.store.GetEvent(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.AddEventException(r.Context(), id, date); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
