// Package service contains client-side application services: authentication flows,
// the wishlist action and per-listing AI conversations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/api"
	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/session"
)

// MinPasswordLen is the shortest password accepted at sign-up.
const MinPasswordLen = 5

// AuthAPI is the remote auth exchange.
type AuthAPI interface {
	// Register creates an account without logging in.
	Register(ctx context.Context, r api.Registration) error
	// Login exchanges credentials for a signed bearer credential.
	Login(ctx context.Context, c api.Credentials) (string, error)
}

// Dispatcher is the write side of the session store.
type Dispatcher interface {
	Dispatch(a session.Action) session.Session
}

// SignUp is the registration form as typed by the user.
type SignUp struct {
	Email    string
	Username string
	Password string
	Confirm  string
}

// Validate checks the form locally. Errors wrap errs.ErrValidation.
func (s SignUp) Validate() error {
	if strings.TrimSpace(s.Email) == "" || strings.TrimSpace(s.Username) == "" {
		return fmt.Errorf("%w: email and username are required", errs.ErrValidation)
	}
	if len(s.Password) < MinPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, MinPasswordLen)
	}
	if !strings.ContainsFunc(s.Password, unicode.IsDigit) {
		return fmt.Errorf("%w: password must contain a number", errs.ErrValidation)
	}
	if s.Password != s.Confirm {
		return fmt.Errorf("%w: passwords do not match", errs.ErrValidation)
	}
	return nil
}

// AuthService drives sign-up, login and logout through the session store.
type AuthService struct {
	api      AuthAPI
	sessions Dispatcher
	demo     api.Credentials
	log      *zap.Logger
}

// NewAuthService constructs AuthService. demo is used by DemoLogin.
func NewAuthService(a AuthAPI, sessions Dispatcher, demo api.Credentials, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{api: a, sessions: sessions, demo: demo, log: log}
}

// Register validates the form and creates the account. It does not log in.
func (s *AuthService) Register(ctx context.Context, f SignUp) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := s.api.Register(ctx, api.Registration{
		Email:    strings.TrimSpace(f.Email),
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
	})
	if err != nil {
		s.log.Info("register rejected", zap.Bool("remote", api.IsRemote(err)), zap.Error(err))
		return err
	}
	s.log.Info("registered", zap.String("username", f.Username))
	return nil
}

// Login runs the exchange and reports its outcome to the session store. The returned
// snapshot is the one produced by the final dispatch.
func (s *AuthService) Login(ctx context.Context, c api.Credentials) (session.Session, error) {
	s.sessions.Dispatch(session.AuthStart{})

	tok, err := s.api.Login(ctx, c)
	if err != nil {
		next := s.sessions.Dispatch(session.AuthFailure{Message: failureMessage(err)})
		return next, err
	}

	next := s.sessions.Dispatch(session.AuthSuccess{Credential: tok})
	if !next.Authenticated() {
		return next, fmt.Errorf("%w: %s", errs.ErrAuthFailure, next.LastError)
	}
	return next, nil
}

// DemoLogin logs in with the configured demo account.
func (s *AuthService) DemoLogin(ctx context.Context) (session.Session, error) {
	if s.demo.Email == "" {
		return session.Session{}, fmt.Errorf("%w: no demo account configured", errs.ErrValidation)
	}
	return s.Login(ctx, s.demo)
}

// Logout clears the session. Safe in any state.
func (s *AuthService) Logout() session.Session {
	return s.sessions.Dispatch(session.Logout{})
}

// failureMessage prefers the backend's own wording.
func failureMessage(err error) string {
	var ae *api.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if errors.Is(err, errs.ErrNetworkUnavailable) {
		return "network unavailable"
	}
	return err.Error()
}

// subjectID converts the session subject into the backend's numeric user id.
func subjectID(s session.Session) (int64, error) {
	id, err := strconv.ParseInt(s.Identity.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q is not a user id", errs.ErrUnauthenticated, s.Identity.Subject)
	}
	return id, nil
}
