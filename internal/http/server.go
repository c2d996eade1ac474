package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/billing"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type Server struct {
	http.Server

	authService   *services.AuthService
	entries       *services.EntryService
	categories    *services.CategoryService
	rules         *services.RuleService
	reports       *services.ReportService
	exports       *services.ExportService
	notifications *services.NotificationService

	store   *storage.Repository
	tokens  *auth.TokenIssuer
	google  *auth.GoogleVerifier
	billing *billing.Client
	webhook *billing.WebhookHandler
	rates   *rates.Client

	frontendURL string
	rateLimiter *rateLimiter
	logger      *log.Logger

	shutdownOnce sync.Once
}

// Deps collects everything the server routes to.
type Deps struct {
	Auth          *services.AuthService
	Entries       *services.EntryService
	Categories    *services.CategoryService
	Rules         *services.RuleService
	Reports       *services.ReportService
	Exports       *services.ExportService
	Notifications *services.NotificationService

	Store   *storage.Repository
	Tokens  *auth.TokenIssuer
	Google  *auth.GoogleVerifier
	Billing *billing.Client
	Webhook *billing.WebhookHandler
	Rates   *rates.Client

	FrontendURL string
	Logger      *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		authService:   deps.Auth,
		entries:       deps.Entries,
		categories:    deps.Categories,
		rules:         deps.Rules,
		reports:       deps.Reports,
		exports:       deps.Exports,
		notifications: deps.Notifications,
		store:         deps.Store,
		tokens:        deps.Tokens,
		google:        deps.Google,
		billing:       deps.Billing,
		webhook:       deps.Webhook,
		rates:         deps.Rates,
		frontendURL:   deps.FrontendURL,
		rateLimiter:   newRateLimiter(),
		logger:        deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Auth flows
	mux.HandleFunc("/api/auth/send-otp", s.withMiddleware(s.handleSendOTP))
	mux.HandleFunc("/api/auth/verify-otp", s.withMiddleware(s.handleVerifyOTP))
	mux.HandleFunc("/api/auth/register", s.withMiddleware(s.handleRegister))
	mux.HandleFunc("/api/auth/login", s.withMiddleware(s.handleLogin))
	mux.HandleFunc("/api/auth/login/verify", s.withMiddleware(s.handleTwoFactorLogin))
	mux.HandleFunc("/api/auth/reset-password", s.withMiddleware(s.handleResetPassword))
	mux.HandleFunc("/api/auth/google", s.withMiddleware(s.handleGoogleLogin))
	mux.HandleFunc("/api/auth/google/callback", s.withMiddleware(s.handleGoogleCallback))

	// Ledger
	mux.HandleFunc("/api/entries", s.withMiddleware(s.requireAuth(s.handleEntries)))
	mux.HandleFunc("/api/entries/item", s.withMiddleware(s.requireAuth(s.handleEntryItem)))
	mux.HandleFunc("/api/entries/receipt", s.withMiddleware(s.requireAuth(s.handleEntryReceipt)))

	// Categories
	mux.HandleFunc("/api/categories", s.withMiddleware(s.requireAuth(s.handleCategories)))
	mux.HandleFunc("/api/categories/item", s.withMiddleware(s.requireAuth(s.handleCategoryItem)))

	// Recurrence rules
	mux.HandleFunc("/api/rules", s.withMiddleware(s.requireAuth(s.handleRules)))
	mux.HandleFunc("/api/rules/item", s.withMiddleware(s.requireAuth(s.handleRuleItem)))

	// Reports and export
	mux.HandleFunc("/api/reports", s.withMiddleware(s.requireAuth(s.handleReport)))
	mux.HandleFunc("/api/reports/export", s.withMiddleware(s.requireAuth(s.handleExport)))
	mux.HandleFunc("/api/notifications", s.withMiddleware(s.requireAuth(s.handleNotifications)))
	mux.HandleFunc("/api/rates", s.withMiddleware(s.requireAuth(s.handleRates)))
	mux.HandleFunc("/api/rates/convert", s.withMiddleware(s.requireAuth(s.handleConvert)))

	// Billing. The webhook authenticates with its Stripe signature, not a JWT.
	mux.HandleFunc("/api/billing/checkout", s.withMiddleware(s.requireAuth(s.handleCheckout)))
	mux.HandleFunc("/api/billing/webhook", s.withMiddleware(s.handleWebhook))

	// Profile
	mux.HandleFunc("/api/profile", s.withMiddleware(s.requireAuth(s.handleProfile)))
	mux.HandleFunc("/api/profile/password", s.withMiddleware(s.requireAuth(s.handleChangePassword)))
	mux.HandleFunc("/api/profile/two-factor", s.withMiddleware(s.requireAuth(s.handleToggleTwoFactor)))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and the HTTP server.
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

// withMiddleware adds security headers, request logging and rate limiting on
// writes.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ctxRequestID, requestID)
		r = r.WithContext(ctx)

		if isWrite(r.Method) && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// requireAuth verifies the bearer token and loads the account.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown account")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		next(w, r.WithContext(ctx))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
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
