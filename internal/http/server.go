// Package http exposes the budget tracker's JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brianschroeder/finance-tracker-sub001/internal/cache"
	"github.com/brianschroeder/finance-tracker-sub001/internal/core"
	"github.com/brianschroeder/finance-tracker-sub001/internal/services"
)

// BudgetAPI is the budget surface the server serves.
type BudgetAPI interface {
	Settings(ctx context.Context, today core.Date) (core.PaySettings, error)
	UpdateSettings(ctx context.Context, settings core.PaySettings) error
	MissedPayday(ctx context.Context, today core.Date) (bool, core.Date, error)
	AdvanceAnchor(ctx context.Context, today core.Date) (core.PaySettings, error)
	Summary(ctx context.Context, periodType core.PeriodType, custom *core.Period, today core.Date) (services.BudgetSummary, error)
}

// TransactionAPI records and lists transactions.
type TransactionAPI interface {
	Create(ctx context.Context, t core.Transaction) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
}

// CategoryStore is the category CRUD slice of the repository.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.BudgetCategory) (int64, error)
	UpdateCategory(ctx context.Context, c core.BudgetCategory) error
	ListCategories(ctx context.Context, activeOnly bool) ([]core.BudgetCategory, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type Server struct {
	http.Server
	budget       BudgetAPI
	transactions TransactionAPI
	categories   CategoryStore
	rateLimiter  *rateLimiter

	// Summary responses are cached between mutations; any write purges.
	summaryCache *cache.LRU[summaryResponse]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, budget BudgetAPI, transactions TransactionAPI, categories CategoryStore) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budget:           budget,
		transactions:     transactions,
		categories:       categories,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.New[summaryResponse](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/pay-settings", s.withMiddleware(s.handleGetPaySettings))
	mux.HandleFunc("PUT /api/pay-settings", s.withMiddleware(s.handleUpdatePaySettings))
	mux.HandleFunc("GET /api/pay-settings/missed-payday", s.withMiddleware(s.handleMissedPayday))
	mux.HandleFunc("POST /api/pay-settings/advance", s.withMiddleware(s.handleAdvanceAnchor))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/budget-summary", s.withMiddleware(s.handleBudgetSummary))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting on writes, request IDs,
// and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
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
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
