// Package session holds the process-wide authentication state machine.
package session

import (
	"github.com/and161185/homeheaven/internal/model"
)

// Status is the authentication lifecycle state.
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
	Failed
)

func (s Status) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is an immutable snapshot of the store state.
// Credential and Identity are set only when Status is Authenticated;
// LastError only when Status is Failed.
type Session struct {
	Status     Status
	Credential string
	Identity   model.Identity
	LastError  string
}

// Authenticated reports whether the snapshot carries a credential.
func (s Session) Authenticated() bool { return s.Status == Authenticated }

// Action is one of AuthStart, AuthSuccess, AuthFailure, Logout.
type Action interface {
	Kind() string
	action()
}

// AuthStart marks the beginning of a credential exchange.
type AuthStart struct{}

// AuthSuccess records a credential returned by the auth exchange.
type AuthSuccess struct{ Credential string }

// AuthFailure records a rejected exchange.
type AuthFailure struct{ Message string }

// Logout discards the session.
type Logout struct{}

func (AuthStart) Kind() string   { return "AUTH_START" }
func (AuthSuccess) Kind() string { return "AUTH_SUCCESS" }
func (AuthFailure) Kind() string { return "AUTH_FAILURE" }
func (Logout) Kind() string      { return "LOGOUT" }

func (AuthStart) action()   {}
func (AuthSuccess) action() {}
func (AuthFailure) action() {}
func (Logout) action()      {}
