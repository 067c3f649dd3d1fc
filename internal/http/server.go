package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orbit/internal/core"
	"orbit/internal/services"
	"orbit/internal/sheets"
)

type Server struct {
	http.Server
	store        Store
	rollover     *services.RolloverService
	historic     *services.HistoricService
	exporter     sheets.SnapshotWriter
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Store is the storage surface the API handlers use directly. The
// rollover, matching and historic flows go through their services
// instead.
type Store interface {
	CreateSpendingPot(ctx context.Context, pot core.SpendingPot) (int64, error)
	GetSpendingPot(ctx context.Context, id int64) (*core.SpendingPot, error)
	ListSpendingPots(ctx context.Context) ([]core.SpendingPot, error)
	CreateSavingsPot(ctx context.Context, pot core.SavingsPot) (int64, error)
	ListSavingsPots(ctx context.Context) ([]core.SavingsPot, error)

	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListUnprocessedTransactions(ctx context.Context) ([]core.Transaction, error)
	ApplyMatch(ctx context.Context, txnID string, potID *int64, isSubscription bool, amount core.Money) error

	CreateRule(ctx context.Context, rule core.AutomaticTransaction) (int64, error)
	ListRules(ctx context.Context) ([]core.AutomaticTransaction, error)
	DeleteRule(ctx context.Context, id int64) error

	CreateSubscription(ctx context.Context, sub core.Subscription) (int64, error)
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error

	CreateEvent(ctx context.Context, ev core.CalendarEvent) (int64, error)
	GetEvent(ctx context.Context, id int64) (*core.CalendarEvent, error)
	ListEvents(ctx context.Context) ([]core.CalendarEvent, error)
	UpdateEventRule(ctx context.Context, id int64, rule string) error
	DeleteEvent(ctx context.Context, id int64) error
	AddEventException(ctx context.Context, eventID int64, date time.Time) error
	ListEventExceptions(ctx context.Context) ([]core.EventException, error)
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. exporter may be nil when no spreadsheet is configured.
func NewServer(addr string, store Store, rollover *services.RolloverService, historic *services.HistoricService, exporter sheets.SnapshotWriter) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       store,
		rollover:    rollover,
		historic:    historic,
		exporter:    exporter,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/rollover", s.withMiddleware(s.handleRollover))

	mux.HandleFunc("GET /api/pots/spending", s.withMiddleware(s.handleListSpendingPots))
	mux.HandleFunc("POST /api/pots/spending", s.withMiddleware(s.handleCreateSpendingPot))
	mux.HandleFunc("GET /api/pots/savings", s.withMiddleware(s.handleListSavingsPots))
	mux.HandleFunc("POST /api/pots/savings", s.withMiddleware(s.handleCreateSavingsPot))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.withMiddleware(s.handlePatchTransaction))

	mux.HandleFunc("GET /api/rules", s.withMiddleware(s.handleListRules))
	mux.HandleFunc("POST /api/rules", s.withMiddleware(s.handleCreateRule))
	mux.HandleFunc("DELETE /api/rules/{id}", s.withMiddleware(s.handleDeleteRule))

	mux.HandleFunc("GET /api/subscriptions", s.withMiddleware(s.handleListSubscriptions))
	mux.HandleFunc("POST /api/subscriptions", s.withMiddleware(s.handleCreateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.withMiddleware(s.handleDeleteSubscription))

	mux.HandleFunc("GET /api/historic/months", s.withMiddleware(s.handleHistoricMonths))
	mux.HandleFunc("GET /api/historic/months/{id}", s.withMiddleware(s.handleHistoricMonth))
	mux.HandleFunc("GET /api/historic/yearly", s.withMiddleware(s.handleHistoricYearly))

	mux.HandleFunc("GET /api/events", s.withMiddleware(s.handleListEvents))
	mux.HandleFunc("POST /api/events", s.withMiddleware(s.handleCreateEvent))
	mux.HandleFunc("PATCH /api/events/{id}", s.withMiddleware(s.handlePatchEvent))
	mux.HandleFunc("GET /api/events/occurrences", s.withMiddleware(s.handleEventOccurrences))
	mux.HandleFunc("DELETE /api/events/{id}", s.withMiddleware(s.handleDeleteEvent))
	mux.HandleFunc("DELETE /api/events/{id}/occurrences/{date}", s.withMiddleware(s.handleDeleteOccurrence))

	return s
}

// withMiddleware adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if isWriteMethod(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
