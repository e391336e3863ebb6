package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeheaven/internal/api"
	"github.com/and161185/homeheaven/internal/credstore"
	"github.com/and161185/homeheaven/internal/session"
	"github.com/and161185/homeheaven/internal/tokenguard"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func tokenFor(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// newStore returns a session store whose guard reads *now.
func newStore(t *testing.T, now *time.Time) (*session.Store, *credstore.Memory) {
	t.Helper()
	mem := credstore.NewMemory()
	g := tokenguard.New(tokenguard.WithClock(func() time.Time { return *now }))
	return session.New(mem, g, zaptest.NewLogger(t)), mem
}

func newBackend(t *testing.T, r *mux.Router) *api.Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api.New(srv.URL, "/api", 5*time.Second, api.WithLogger(zaptest.NewLogger(t)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
