package session

import (
	"strings"

	"github.com/and161185/homeheaven/internal/tokenguard"
)

// Reduce returns the state following a. It is total: every action is accepted from every
// state. It depends only on its inputs and the guard's clock.
func Reduce(g *tokenguard.Guard, s Session, a Action) Session {
	switch a := a.(type) {
	case AuthStart:
		return Session{Status: Authenticating}
	case AuthSuccess:
		cred := strings.TrimSpace(a.Credential)
		id, err := g.Decode(cred)
		if err != nil {
			return Session{Status: Failed, LastError: err.Error()}
		}
		if g.Expired(id) {
			return Session{Status: Failed, LastError: "credential expired"}
		}
		return Session{Status: Authenticated, Credential: cred, Identity: id}
	case AuthFailure:
		msg := a.Message
		if msg == "" {
			msg = "authentication failed"
		}
		return Session{Status: Failed, LastError: msg}
	case Logout:
		return Session{Status: Anonymous}
	default:
		return s
	}
}
