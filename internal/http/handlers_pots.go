package http

import (
	"log/slog"
	"net/http"
	"time"

	"orbit/internal/core"
	"orbit/internal/services"
)

type potAllocationRequest struct {
	PotID  int64  `json:"potId"`
	Amount string `json:"amount"`
}

type rolloverRequest struct {
	Income         string                 `json:"income"`
	SpendingPots   []potAllocationRequest `json:"spendingPots"`
	SavingsPots    []potAllocationRequest `json:"savingsPots"`
	RolloverPotIDs []int64                `json:"rolloverPotIds"`
}

type monthResponse struct {
	ID               int64      `json:"id"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	IncomePence      int64      `json:"incomePence"`
	SavedPence       int64      `json:"savedPence"`
	SpentPence       int64      `json:"spentPence"`
	LeftOverPence    int64      `json:"leftOverPence"`
	SubscriptionCost int64      `json:"subscriptionCostPence"`
}

type rolloverResponse struct {
	ClosedMonth *monthResponse `json:"closedMonth,omitempty"`
	NewMonth    monthResponse  `json:"newMonth"`
}

func toMonthResponse(m core.HistoricMonth) monthResponse {
	return monthResponse{
		ID:               m.ID,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		IncomePence:      m.Income.Pence,
		SavedPence:       m.AmountSaved.Pence,
		SpentPence:       m.AmountSpent.Pence,
		LeftOverPence:    m.AmountLeftOver.Pence,
		SubscriptionCost: m.SubscriptionCost.Pence,
	}
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	var req rolloverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	income, err := parseAmount(req.Income)
	if err != nil {
		writeError(w, r, err)
		return
	}
	spendingAllocs, err := toAllocations(req.SpendingPots)
	if err != nil {
		writeError(w, r, err)
		return
	}
	savingsAllocs, err := toAllocations(req.SavingsPots)
	if err != nil {
		writeError(w, r, err)
		return
	}

	plan, err := s.rollover.AddNewMonth(r.Context(), income, spendingAllocs, savingsAllocs, req.RolloverPotIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Best-effort spreadsheet export; the archive in SQLite is already
	// committed at this point.
	if s.exporter != nil && plan.ClosedMonth != nil {
		if ref, err := s.exporter.AppendMonth(r.Context(), *plan.ClosedMonth, plan.SpendingSnapshots, plan.SavingsSnapshots); err != nil {
			slog.ErrorContext(r.Context(), "Sheet export failed", "month_id", plan.ClosedMonth.ID, "error", err)
		} else {
			slog.InfoContext(r.Context(), "Closed month exported", "month_id", plan.ClosedMonth.ID, "row", ref)
		}
	}

	resp := rolloverResponse{NewMonth: toMonthResponse(plan.NewMonth)}
	if plan.ClosedMonth != nil {
		closed := toMonthResponse(*plan.ClosedMonth)
		resp.ClosedMonth = &closed
	}
	writeJSON(w, http.StatusCreated, resp)
}

func toAllocations(reqs []potAllocationRequest) ([]services.PotAllocation, error) {
	allocs := make([]services.PotAllocation, 0, len(reqs))
	for _, a := range reqs {
		amount, err := parseAmount(a.Amount)
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, services.PotAllocation{PotID: a.PotID, Amount: amount})
	}
	return allocs, nil
}

type spendingPotResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	AmountToAddPence int64  `json:"amountToAddPence"`
	SpentPence       int64  `json:"spentPence"`
	LeftPence        int64  `json:"leftPence"`
	RolloverDefault  bool   `json:"rolloverDefault"`
}

func (s *Server) handleListSpendingPots(w http.ResponseWriter, r *http.Request) {
	pots, err := s.store.ListSpendingPots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]spendingPotResponse, 0, len(pots))
	for _, p := range pots {
		resp = append(resp, spendingPotResponse{
			ID:               p.ID,
			Name:             p.Name,
			AmountToAddPence: p.AmountToAdd.Pence,
			SpentPence:       p.AmountSpent.Pence,
			LeftPence:        p.AmountLeft.Pence,
			RolloverDefault:  p.RolloverDefault,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSpendingPotRequest struct {
	Name            string `json:"name"`
	AmountToAdd     string `json:"amountToAdd"`
	RolloverDefault bool   `json:"rolloverDefault"`
}

func (s *Server) handleCreateSpendingPot(w http.ResponseWriter, r *http.Request) {
	var req createSpendingPotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pot := core.SpendingPot{Name: req.Name, RolloverDefault: req.RolloverDefault}
	if req.AmountToAdd != "" {
		amount, err := parseAmount(req.AmountToAdd)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pot.AmountToAdd = amount
	}
	if err := pot.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateSpendingPot(r.Context(), pot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type savingsPotResponse struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	BalancePence          int64  `json:"balancePence"`
	LastContributionPence int64  `json:"lastContributionPence"`
}

func (s *Server) handleListSavingsPots(w http.ResponseWriter, r *http.Request) {
	pots, err := s.store.ListSavingsPots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]savingsPotResponse, 0, len(pots))
	for _, p := range pots {
		resp = append(resp, savingsPotResponse{
			ID:                    p.ID,
			Name:                  p.Name,
			BalancePence:          p.Balance.Pence,
			LastContributionPence: p.LastContribution.Pence,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSavingsPotRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateSavingsPot(w http.ResponseWriter, r *http.Request) {
	var req createSavingsPotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	pot := core.SavingsPot{Name: req.Name}
	if err := pot.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateSavingsPot(r.Context(), pot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
