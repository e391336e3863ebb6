package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeheaven/internal/api"
	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/session"
)

func TestSignUp_Validate(t *testing.T) {
	t.Parallel()
	ok := SignUp{Email: "a@b.c", Username: "ann", Password: "pass1", Confirm: "pass1"}
	require.NoError(t, ok.Validate())

	for name, f := range map[string]SignUp{
		"no email":   {Username: "ann", Password: "pass1", Confirm: "pass1"},
		"short":      {Email: "a@b.c", Username: "ann", Password: "p1", Confirm: "p1"},
		"no digit":   {Email: "a@b.c", Username: "ann", Password: "password", Confirm: "password"},
		"mismatch":   {Email: "a@b.c", Username: "ann", Password: "pass1", Confirm: "pass2"},
		"blank user": {Email: "a@b.c", Username: "  ", Password: "pass1", Confirm: "pass1"},
	} {
		if err := f.Validate(); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%s: want ErrValidation, got %v", name, err)
		}
	}
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/auth/register", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		var in api.Registration
		_ = json.NewDecoder(req.Body).Decode(&in)
		if in.Email == "taken@x.y" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Email already registered"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	}).Methods(http.MethodPost)

	now := fixedNow
	st, _ := newStore(t, &now)
	s := NewAuthService(newBackend(t, r), st, api.Credentials{}, zaptest.NewLogger(t))
	ctx := context.Background()

	err := s.Register(ctx, SignUp{Email: "a@b.c", Username: "ann", Password: "abc", Confirm: "abc"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Zero(t, calls.Load())

	require.NoError(t, s.Register(ctx, SignUp{Email: "a@b.c", Username: "ann", Password: "abc12", Confirm: "abc12"}))

	err = s.Register(ctx, SignUp{Email: "taken@x.y", Username: "bob", Password: "abc12", Confirm: "abc12"})
	var ae *api.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "Email already registered", ae.Message)
	require.Equal(t, int32(2), calls.Load())

	require.Equal(t, session.Anonymous, st.CurrentSession().Status)
}

func TestAuth_LoginFlow(t *testing.T) {
	t.Parallel()
	now := fixedNow
	good := tokenFor(t, "42", fixedNow.Add(time.Hour))
	expired := tokenFor(t, "42", fixedNow.Add(-time.Hour))

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var in api.Credentials
		_ = json.NewDecoder(req.Body).Decode(&in)
		switch in.Password {
		case "right1":
			writeJSON(w, http.StatusOK, map[string]string{"token": good})
		case "stale1":
			writeJSON(w, http.StatusOK, map[string]string{"token": expired})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		}
	}).Methods(http.MethodPost)

	st, mem := newStore(t, &now)
	var seen []session.Status
	st.Subscribe(func(s session.Session) { seen = append(seen, s.Status) })

	s := NewAuthService(newBackend(t, r), st, api.Credentials{Email: "demo@homeheaven.test", Password: "right1"}, zaptest.NewLogger(t))
	ctx := context.Background()

	got, err := s.Login(ctx, api.Credentials{Email: "a@b.c", Password: "wrong1"})
	require.ErrorIs(t, err, errs.ErrAuthFailure)
	require.Equal(t, session.Failed, got.Status)
	require.Equal(t, "Invalid email or password", got.LastError)

	got, err = s.Login(ctx, api.Credentials{Email: "a@b.c", Password: "stale1"})
	require.ErrorIs(t, err, errs.ErrAuthFailure)
	require.Equal(t, session.Failed, got.Status)

	got, err = s.DemoLogin(ctx)
	require.NoError(t, err)
	require.Equal(t, session.Authenticated, got.Status)
	require.Equal(t, "42", got.Identity.Subject)
	persisted, err := mem.Load()
	require.NoError(t, err)
	require.Equal(t, good, persisted)

	require.Equal(t, session.Anonymous, s.Logout().Status)
	_, err = mem.Load()
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.Equal(t, []session.Status{
		session.Authenticating, session.Failed,
		session.Authenticating, session.Failed,
		session.Authenticating, session.Authenticated,
		session.Anonymous,
	}, seen)
}

func TestAuth_LoginNetworkFailure(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st, _ := newStore(t, &now)
	dead := api.New("http://127.0.0.1:1", "/api", time.Second)
	s := NewAuthService(dead, st, api.Credentials{}, nil)

	got, err := s.Login(context.Background(), api.Credentials{Email: "a", Password: "b"})
	require.ErrorIs(t, err, errs.ErrNetworkUnavailable)
	require.Equal(t, session.Failed, got.Status)
	require.Equal(t, "network unavailable", got.LastError)

	_, err = s.DemoLogin(context.Background())
	require.ErrorIs(t, err, errs.ErrValidation)
}
