// Package http serves the salon dashboard: login, booking, the
// calendar and KPI views, and report downloads.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"salon/internal/backend"
	"salon/internal/core"
	applog "salon/internal/log"
	"salon/internal/services"
	"salon/internal/session"
	appweb "salon/web"
)

type Server struct {
	http.Server
	templates    *template.Template
	backend      backend.Backend
	guard        *session.Guard
	appointments *services.AppointmentService
	salonName    string
	rateLimiter  *rateLimiter
	staffCache   *staffCache
	shutdownOnce sync.Once
}

// staffCache keeps the active staff list warm. The roster changes
// rarely, so a single TTL entry is enough.
type staffCache struct {
	mu        sync.Mutex
	staff     []core.Staff
	fetchedAt time.Time
	ttl       time.Duration
}

func newStaffCache(ttl time.Duration) *staffCache {
	return &staffCache{ttl: ttl}
}

func (c *staffCache) get() ([]core.Staff, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staff == nil || time.Since(c.fetchedAt) > c.ttl {
		return nil, false
	}
	out := make([]core.Staff, len(c.staff))
	copy(out, c.staff)
	return out, true
}

func (c *staffCache) set(staff []core.Staff) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.staff = staff
	c.fetchedAt = time.Now()
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

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, b backend.Backend, guard *session.Guard, appointments *services.AppointmentService, salonName string) *Server {
	mux := http.NewServeMux()

	logger := applog.NewFromEnv(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: applog.Middleware(logger)(mux),
		},
		backend:      b,
		guard:        guard,
		appointments: appointments,
		salonName:    salonName,
		rateLimiter:  newRateLimiter(),
		staffCache:   newStaffCache(5 * time.Minute),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/", s.withSecurityHeaders(s.requireSession(s.handleDashboard)))
	mux.HandleFunc("/appointments", s.withSecurityHeaders(s.requireSession(s.handleCreateAppointment)))
	mux.HandleFunc("/appointments/delete", s.withSecurityHeaders(s.requireSession(s.handleDeleteAppointment)))
	// UI partials
	mux.HandleFunc("/ui/kpi", s.withSecurityHeaders(s.requireSession(s.handleKPI)))
	mux.HandleFunc("/ui/calendar", s.withSecurityHeaders(s.requireSession(s.handleCalendar)))
	mux.HandleFunc("/ui/appointments", s.withSecurityHeaders(s.requireSession(s.handleAppointmentList)))
	// Downloads
	mux.HandleFunc("/export/csv", s.withSecurityHeaders(s.requireSession(s.handleExportCSV)))
	mux.HandleFunc("/export/pdf", s.withSecurityHeaders(s.requireSession(s.handleExportPDF)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
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

// requireSession gates a handler behind the login-lifetime policy. Full
// page loads get a redirect; htmx partials get an HX-Redirect header so
// the client swaps the whole window.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.guard.Enforce(r.Context()) {
			next(w, r)
			return
		}
		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		logs := applog.NewStructuredLogger(applog.FromContext(ctx))
		logs.LogHTTPStart(ctx, r, clientIP, requestID)

		// Rate limit mutations only; reads are cheap.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logs.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
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

// listStaff returns the active roster through the warm cache.
func (s *Server) listStaff(ctx context.Context) ([]core.Staff, error) {
	if staff, ok := s.staffCache.get(); ok {
		return staff, nil
	}
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	staff, err := s.backend.ListStaff(cctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	s.staffCache.set(staff)
	return staff, nil
}
