// Package http exposes the record store and the derived-metrics engine
// over a JSON API. Writes arrive form-encoded, reads leave as JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "finguard/internal/log"
	"finguard/internal/profile"
	"finguard/internal/store"
)

type Server struct {
	http.Server
	store       *store.Store
	profiles    *profile.Client
	exportDir   string
	rateLimiter *rateLimiter
	logger      *applog.Logger

	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes and returns a ready-to-run server.
// profiles may be nil when no remote profile service is configured.
func NewServer(addr string, st *store.Store, profiles *profile.Client, exportDir string, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent("http")
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       st,
		profiles:    profiles,
		exportDir:   exportDir,
		rateLimiter: newRateLimiter(),
		logger:      logger,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))

	mux.HandleFunc("GET /dashboard", s.withSecurityHeaders(s.handleDashboard))

	mux.HandleFunc("POST /budgets", s.withSecurityHeaders(s.handleUpsertBudget))
	mux.HandleFunc("GET /budgets", s.withSecurityHeaders(s.handleListBudgets))
	mux.HandleFunc("DELETE /budgets/{id}", s.withSecurityHeaders(s.handleDeleteBudget))

	mux.HandleFunc("POST /plan", s.withSecurityHeaders(s.handleSetPlan))
	mux.HandleFunc("GET /plan", s.withSecurityHeaders(s.handleGetPlan))

	mux.HandleFunc("POST /tax", s.withSecurityHeaders(s.handleEstimateTax))
	mux.HandleFunc("GET /tax", s.withSecurityHeaders(s.handleGetTax))

	mux.HandleFunc("POST /goals", s.withSecurityHeaders(s.handleUpsertGoal))
	mux.HandleFunc("GET /goals", s.withSecurityHeaders(s.handleListGoals))
	mux.HandleFunc("DELETE /goals/{id}", s.withSecurityHeaders(s.handleDeleteGoal))

	mux.HandleFunc("GET /analytics", s.withSecurityHeaders(s.handleAnalytics))
	mux.HandleFunc("GET /insights", s.withSecurityHeaders(s.handleInsights))

	mux.HandleFunc("GET /export/json", s.withSecurityHeaders(s.handleExportJSON))
	mux.HandleFunc("GET /export/csv", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("POST /import/json", s.withSecurityHeaders(s.handleImportJSON))

	mux.HandleFunc("GET /profile/{name}", s.withSecurityHeaders(s.handleGetProfile))
	mux.HandleFunc("PUT /profile/{name}", s.withSecurityHeaders(s.handlePutProfile))
	mux.HandleFunc("PATCH /profile/{name}", s.withSecurityHeaders(s.handlePatchProfile))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
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

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := "req_" + uuid.NewString()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutations only; reads are cheap.
		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
