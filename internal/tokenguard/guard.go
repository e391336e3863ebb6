// Package tokenguard decodes and checks bearer credentials locally, without contacting the backend.
package tokenguard

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
)

// Clock returns the current time.
type Clock func() time.Time

// Guard is stateless apart from its clock; the zero value is not usable, use New.
type Guard struct {
	now    Clock
	parser *jwt.Parser
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces the wall clock (tests).
func WithClock(c Clock) Option {
	return func(g *Guard) { g.now = c }
}

// New constructs a Guard using time.Now unless overridden.
func New(opts ...Option) *Guard {
	g := &Guard{
		now: time.Now,
		// signature is the backend's concern; numbers decoded as json.Number so numeric "sub" survives
		parser: jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithJSONNumber()),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Now exposes the guard's clock so callers share one notion of time.
func (g *Guard) Now() time.Time { return g.now() }

// Decode parses the credential's claims. It fails with errs.ErrDecode when the credential
// is not a structurally valid signed token or lacks subject/expiry claims.
func (g *Guard) Decode(credential string) (model.Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return model.Identity{}, fmt.Errorf("%w: empty", errs.ErrDecode)
	}

	claims := jwt.MapClaims{}
	if _, _, err := g.parser.ParseUnverified(credential, claims); err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", errs.ErrDecode, err)
	}

	sub, err := subject(claims)
	if err != nil {
		return model.Identity{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return model.Identity{}, fmt.Errorf("%w: missing exp", errs.ErrDecode)
	}

	id := model.Identity{Subject: sub, ExpiresAt: exp.Time}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}
	return id, nil
}

// IsValid reports whether credential is present, decodable and not expired.
// Expiry at or before now is invalid. Never panics.
func (g *Guard) IsValid(credential string) bool {
	id, err := g.Decode(credential)
	if err != nil {
		return false
	}
	return !g.Expired(id)
}

// Expired reports whether the identity's expiry is at or before now.
func (g *Guard) Expired(id model.Identity) bool {
	return !id.ExpiresAt.After(g.now())
}

func subject(claims jwt.MapClaims) (string, error) {
	switch v := claims["sub"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case json.Number:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: missing sub", errs.ErrDecode)
}
