package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
}

func testServer(t *testing.T) (*Server, *storage.Repository, *auth.TokenIssuer) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	srv := NewServer(":0", Deps{
		Store:  repo,
		Tokens: tokens,
		Logger: testLogger(),
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, repo, tokens
}

func seedUser(t *testing.T, repo *storage.Repository) *core.User {
	t.Helper()
	user := &core.User{
		Email:    "auth@example.com",
		FullName: "Auth Tester",
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func TestRequireAuthMissingToken(t *testing.T) {
	srv, _, _ := testServer(t)

	r := httptest.NewRequest("GET", "/api/profile", nil)
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	srv, _, _ := testServer(t)

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	srv, _, tokens := testServer(t)

	token, err := tokens.Issue(&core.User{ID: 999, Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	srv, repo, tokens := testServer(t)
	user := seedUser(t, repo)

	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	r := httptest.NewRequest("GET", "/api/profile", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _, _ := testServer(t)

	r := httptest.NewRequest("GET", "/api/profile", nil)
	w := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(w, r)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := w.Header().Get(name); got != want {
			t.Errorf("header %s = %q, want %q", name, got, want)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := testServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d denied within limit", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Error("request 61 allowed, want denied")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("different client denied")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"Bearer  spaced ", "spaced"},
		{"Basic abc123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(r); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
