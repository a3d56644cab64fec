package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryIdempotencyStore struct {
	values map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{values: map[string]string{}}
}

func (s *memoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "adsdir:idempotency:" + scope + ":" + id
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]int{"calls": *calls}})
	})
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryIdempotencyStore(), authTestLogger())(countingHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/plans", nil))

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestIdempotencyRequiresKeyOnGuardedRoute(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryIdempotencyStore(), authTestLogger())(countingHandler(&calls))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/v1/payments", strings.NewReader(`{}`)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if calls != 0 {
		t.Error("handler ran without an idempotency key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryIdempotencyStore(), authTestLogger())(countingHandler(&calls))

	body := `{"amount":"500.00"}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payments", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "pay-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1 (second request must replay)", calls)
	}
	if second.Code != first.Code {
		t.Errorf("replay status = %d, want %d", second.Code, first.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replay body = %q, want %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryIdempotencyStore(), authTestLogger())(countingHandler(&calls))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payments", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "pay-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	send(`{"amount":"500.00"}`)
	conflicting := send(`{"amount":"900.00"}`)

	if conflicting.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", conflicting.Code)
	}
	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
}
