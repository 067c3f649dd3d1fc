package http

import (
	"net/http"
)

func (s *Server) handleHistoricMonths(w http.ResponseWriter, r *http.Request) {
	options, err := s.historic.MonthsDropdownValues(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}

func (s *Server) handleHistoricMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.historic.MonthData(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleHistoricYearly(w http.ResponseWriter, r *http.Request) {
	series, err := s.historic.YearlyData(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
