package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/adsjeddah/ads-sub002/pkg/auth"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "adsdir", ExpirationMinutes: 60}
}

func authTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func protectedHandler(t *testing.T, gotAdminID *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAdminID = AdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	var adminID string
	handler := AdminAuth(testJWTConfig(), authTestLogger())(protectedHandler(t, &adminID))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/v1/advertisers", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if adminID != "" {
		t.Error("handler ran without credentials")
	}
}

func TestAdminAuthRejectsGarbageToken(t *testing.T) {
	var adminID string
	handler := AdminAuth(testJWTConfig(), authTestLogger())(protectedHandler(t, &adminID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/advertisers", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAdminAuthSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	id := uuid.New()
	token, err := pkgauth.MintAdminToken(cfg, time.Now().UTC(), id, "ops@example.com")
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	var adminID string
	handler := AdminAuth(cfg, authTestLogger())(protectedHandler(t, &adminID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/advertisers", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if adminID != id.String() {
		t.Errorf("admin id in context = %q, want %q", adminID, id)
	}
}

func TestAdminAuthRejectsWrongSecret(t *testing.T) {
	other := config.JWTConfig{Secret: "other-secret", Issuer: "adsdir", ExpirationMinutes: 60}
	token, err := pkgauth.MintAdminToken(other, time.Now().UTC(), uuid.New(), "ops@example.com")
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	var adminID string
	handler := AdminAuth(testJWTConfig(), authTestLogger())(protectedHandler(t, &adminID))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/advertisers", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
