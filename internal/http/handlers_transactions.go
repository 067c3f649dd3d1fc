package http

import (
	"net/http"
	"strings"
	"time"

	"orbit/internal/core"
)

type transactionResponse struct {
	ID             string    `json:"id"`
	MerchantName   string    `json:"merchantName"`
	AmountPence    int64     `json:"amountPence"`
	Date           time.Time `json:"date"`
	Processed      bool      `json:"processed"`
	PotID          *int64    `json:"potId,omitempty"`
	IsSubscription bool      `json:"isSubscription"`
}

func toTransactionResponses(txns []core.Transaction) []transactionResponse {
	resp := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, transactionResponse{
			ID:             t.ID,
			MerchantName:   t.MerchantName,
			AmountPence:    t.Amount.Pence,
			Date:           t.Date,
			Processed:      t.Processed,
			PotID:          t.PotID,
			IsSubscription: t.IsSubscription,
		})
	}
	return resp
}

// handleListTransactions lists all transactions, or only unprocessed
// ones when the ?unprocessed query flag is set.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txns []core.Transaction
		err  error
	)
	if r.URL.Query().Has("unprocessed") {
		txns, err = s.store.ListUnprocessedTransactions(r.Context())
	} else {
		txns, err = s.store.ListTransactions(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txns))
}

type patchTransactionRequest struct {
	PotID          *int64 `json:"potId"`
	IsSubscription bool   `json:"isSubscription"`
	Amount         string `json:"amount"`
}

// handlePatchTransaction files an unprocessed transaction manually:
// assigns it to a pot (or none) and marks it processed, debiting the
// pot in the same database transaction.
func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	txnID := strings.TrimSpace(r.PathValue("id"))
	if txnID == "" {
		writeError(w, r, badRequest("transaction id required"))
		return
	}

	var req patchTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Filing into a pot that does not exist would silently debit nothing.
	if req.PotID != nil {
		if _, err := s.store.GetSpendingPot(r.Context(), *req.PotID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	if err := s.store.ApplyMatch(r.Context(), txnID, req.PotID, req.IsSubscription, amount); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": txnID})
}

type ruleResponse struct {
	ID             int64  `json:"id"`
	MerchantKey    string `json:"merchantKey"`
	PotID          *int64 `json:"potId,omitempty"`
	IsSubscription bool   `json:"isSubscription"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.ListRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		resp = append(resp, ruleResponse{
			ID:             rule.ID,
			MerchantKey:    rule.MerchantKey,
			PotID:          rule.PotID,
			IsSubscription: rule.IsSubscription,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createRuleRequest struct {
	MerchantKey    string `json:"merchantKey"`
	PotID          *int64 `json:"potId"`
	IsSubscription bool   `json:"isSubscription"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rule := core.AutomaticTransaction{
		MerchantKey:    req.MerchantKey,
		PotID:          req.PotID,
		IsSubscription: req.IsSubscription,
	}
	if err := rule.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.CreateRule(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteRule(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subscriptionResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	AmountPence        int64  `json:"amountPence"`
	MonthlyAmountPence int64  `json:"monthlyAmountPence"`
	BillingFrequency   string `json:"billingFrequency"`
	BillingDay         int    `json:"billingDay"`
	BillingMonth       int    `json:"billingMonth,omitempty"`
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListSubscriptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, subscriptionResponse{
			ID:                 sub.ID,
			Name:               sub.Name,
			AmountPence:        sub.Amount.Pence,
			MonthlyAmountPence: sub.MonthlyAmount().Pence,
			BillingFrequency:   string(sub.BillingFrequency),
			BillingDay:         sub.BillingDay,
			BillingMonth:       sub.BillingMonth,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSubscriptionRequest struct {
	Name             string `json:"name"`
	Amount           string `json:"amount"`
	BillingFrequency string `json:"billingFrequency"`
	BillingDay       int    `json:"billingDay"`
	BillingMonth     int    `json:"billingMonth"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub := core.Subscription{
		Name:             req.Name,
		Amount:           amount,
		BillingFrequency: core.BillingFrequency(req.BillingFrequency),
		BillingDay:       req.BillingDay,
		BillingMonth:     req.BillingMonth,
	}
	if err := sub.Validate(); err != nil {
		writeError(w, r, badRequest(err.Error()))
		return
	}

	id, err := s.store.CreateSubscription(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteSubscription(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
