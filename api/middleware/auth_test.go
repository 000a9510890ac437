package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/auth"
	"github.com/angelmondragon/vidrobox-backend/pkg/auth/session"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "vidrobox", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{owner: uuid.New()}, nil)(okHandler())

	for _, header := range []string{"", "Bearer ", "Bearer invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthSeedsAdminContext(t *testing.T) {
	adminID := uuid.New()
	token, jti := mintTestToken(t, adminID)

	var captured struct {
		id      uuid.UUID
		email   string
		role    string
		session string
	}
	handler := Auth(testJWT, stubSessionVerifier{owner: adminID}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.id, captured.email, _ = AdminFromContext(r.Context())
		captured.role = RoleFromContext(r.Context())
		captured.session = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.id != adminID || captured.email != "ana@vidrobox.com.br" {
		t.Fatalf("unexpected admin %s %s", captured.id, captured.email)
	}
	if captured.role != auth.RoleAdmin || captured.session != jti {
		t.Fatalf("unexpected role %q session %q", captured.role, captured.session)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New())
	handler := Auth(testJWT, stubSessionVerifier{}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsSessionOwnedByAnotherAdmin(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New())
	handler := Auth(testJWT, stubSessionVerifier{owner: uuid.New()}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAcceptsTokenHeader(t *testing.T) {
	adminID := uuid.New()
	token, _ := mintTestToken(t, adminID)
	handler := Auth(testJWT, stubSessionVerifier{owner: adminID}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthSurfacesSessionStoreFailure(t *testing.T) {
	token, _ := mintTestToken(t, uuid.New())
	handler := Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, auth.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a principal, got %d", resp.Code)
	}

	viewer := req.WithContext(WithAdmin(req.Context(), uuid.New(), "", "viewer", "jti"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, viewer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another role, got %d", resp.Code)
	}

	req = req.WithContext(WithAdmin(req.Context(), uuid.New(), "", auth.RoleAdmin, "jti"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func mintTestToken(t *testing.T, adminID uuid.UUID) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		AdminID: adminID,
		Email:   "ana@vidrobox.com.br",
		JTI:     accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token, accessID
}

// stubSessionVerifier owns every session for owner; a nil owner means no
// live session.
type stubSessionVerifier struct {
	owner uuid.UUID
	err   error
}

func (s stubSessionVerifier) Owner(ctx context.Context, accessID string) (uuid.UUID, bool, error) {
	if s.err != nil {
		return uuid.Nil, false, s.err
	}
	return s.owner, s.owner != uuid.Nil, nil
}
