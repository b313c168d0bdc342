package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/config"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/pkg/jwt"

	"github.com/google/uuid"
)

type fakeTokenStore struct {
	tokens map[string]bool
}

func (s *fakeTokenStore) Save(_ context.Context, _ jwt.TokenType, _ uuid.UUID, tokenID string, _ time.Duration) error {
	s.tokens[tokenID] = true
	return nil
}

func (s *fakeTokenStore) Exists(_ context.Context, _ jwt.TokenType, _ uuid.UUID, tokenID string) (bool, error) {
	return s.tokens[tokenID], nil
}

func (s *fakeTokenStore) Revoke(_ context.Context, _ jwt.TokenType, _ uuid.UUID, tokenID string) error {
	delete(s.tokens, tokenID)
	return nil
}

func (s *fakeTokenStore) RevokeAll(context.Context, uuid.UUID) error {
	s.tokens = map[string]bool{}
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		handler    func(http.Handler) http.Handler
		wantStatus int
	}{
		{"doctor on doctor route", WithIdentity(context.Background(), uuid.New(), "d@x.test", entity.RoleDoctor, "t"), RequireDoctor, http.StatusNoContent},
		{"patient on doctor route", WithIdentity(context.Background(), uuid.New(), "p@x.test", entity.RolePatient, "t"), RequireDoctor, http.StatusForbidden},
		{"patient on patient route", WithIdentity(context.Background(), uuid.New(), "p@x.test", entity.RolePatient, "t"), RequirePatient, http.StatusNoContent},
		{"anonymous", context.Background(), RequirePatient, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tt.ctx)
			rec := httptest.NewRecorder()
			tt.handler(okHandler()).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "s", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	store := &fakeTokenStore{tokens: map[string]bool{}}
	m := NewAuthMiddleware(jwtService, store)

	userID := uuid.New()
	access, accessID, _ := jwtService.GenerateAccessToken(userID, "p@x.test", "patient")
	refresh, _, _ := jwtService.GenerateRefreshToken(userID, "p@x.test", "patient")
	store.tokens[accessID] = true

	var seenUser uuid.UUID
	var seenRole entity.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = GetUserIDFromContext(r.Context())
		seenRole, _ = GetRoleFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Token " + access, http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(next).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if seenUser != userID || seenRole != entity.RolePatient {
		t.Errorf("context identity = %v/%v, want %v/patient", seenUser, seenRole, userID)
	}

	delete(store.tokens, accessID)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	m.Authenticate(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", rec.Code)
	}
}

func TestCORSAllowList(t *testing.T) {
	m := NewCORSMiddleware([]string{"http://app.test"})

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	m.Handle(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	m.Handle(okHandler()).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}
