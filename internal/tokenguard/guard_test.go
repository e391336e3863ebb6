package tokenguard

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/homeheaven/internal/errs"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func makeJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestDecode_StringSubject(t *testing.T) {
	t.Parallel()
	g := New(WithClock(fixedClock))

	j := makeJWT(t, jwt.MapClaims{
		"sub": "42",
		"iat": fixedNow.Add(-time.Minute).Unix(),
		"exp": fixedNow.Add(time.Hour).Unix(),
	})
	id, err := g.Decode(j)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id.Subject != "42" {
		t.Fatalf("subject mismatch: %q", id.Subject)
	}
	if !id.ExpiresAt.Equal(fixedNow.Add(time.Hour)) || !id.IssuedAt.Equal(fixedNow.Add(-time.Minute)) {
		t.Fatalf("times mismatch: %+v", id)
	}
}

func TestDecode_NumericSubject(t *testing.T) {
	t.Parallel()
	g := New(WithClock(fixedClock))

	j := makeJWT(t, jwt.MapClaims{"sub": 42, "exp": fixedNow.Add(time.Hour).Unix()})
	id, err := g.Decode(j)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if id.Subject != "42" {
		t.Fatalf("subject mismatch: %q", id.Subject)
	}
	if !id.IssuedAt.IsZero() {
		t.Fatalf("iat must be zero when absent")
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()
	g := New(WithClock(fixedClock))

	garbage := base64.RawURLEncoding.EncodeToString([]byte("{not json"))
	for _, c := range []string{
		"",
		"   ",
		"this-is-not-a-jwt",
		"a.b",
		"a.b.c",
		garbage + "." + garbage + ".sig",
		makeJWT(t, jwt.MapClaims{"exp": fixedNow.Add(time.Hour).Unix()}),
		makeJWT(t, jwt.MapClaims{"sub": "1"}),
		makeJWT(t, jwt.MapClaims{"sub": "", "exp": fixedNow.Add(time.Hour).Unix()}),
	} {
		if _, err := g.Decode(c); !errors.Is(err, errs.ErrDecode) {
			t.Fatalf("want ErrDecode for %q, got %v", c, err)
		}
	}
}

func TestIsValid_ExpiryBoundary(t *testing.T) {
	t.Parallel()
	g := New(WithClock(fixedClock))

	cases := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"past", fixedNow.Add(-time.Second), false},
		{"exactly now", fixedNow, false},
		{"future", fixedNow.Add(time.Second), true},
		{"far future", fixedNow.Add(24 * time.Hour), true},
	}
	for _, tc := range cases {
		j := makeJWT(t, jwt.MapClaims{"sub": "7", "exp": tc.exp.Unix()})
		if got := g.IsValid(j); got != tc.want {
			t.Fatalf("%s: IsValid=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsValid_AbsentOrMalformed(t *testing.T) {
	t.Parallel()
	g := New(WithClock(fixedClock))

	if g.IsValid("") {
		t.Fatalf("absent credential must be invalid")
	}
	if g.IsValid("x.y.z") {
		t.Fatalf("malformed credential must be invalid")
	}
}

func TestIsValid_FollowsClock(t *testing.T) {
	t.Parallel()

	now := fixedNow
	g := New(WithClock(func() time.Time { return now }))
	j := makeJWT(t, jwt.MapClaims{"sub": "7", "exp": fixedNow.Add(time.Minute).Unix()})

	if !g.IsValid(j) {
		t.Fatalf("want valid before expiry")
	}
	now = fixedNow.Add(2 * time.Minute)
	if g.IsValid(j) {
		t.Fatalf("want invalid after expiry")
	}
	if !g.Now().Equal(now) {
		t.Fatalf("Now must follow injected clock")
	}
}
