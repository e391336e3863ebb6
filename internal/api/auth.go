package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/and161185/homeheaven/internal/errs"
)

// Registration is the sign-up form.
type Registration struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, r Registration) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", "", r, nil)
}

// Login exchanges credentials for a signed bearer credential. Any backend rejection
// is wrapped with errs.ErrAuthFailure.
func (c *Client) Login(ctx context.Context, cr Credentials) (string, error) {
	var out tokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", cr, &out)
	var ae *Error
	if errors.As(err, &ae) {
		return "", fmt.Errorf("%w: %w", errs.ErrAuthFailure, err)
	}
	if err != nil {
		return "", err
	}
	tok := out.Token
	if tok == "" {
		tok = out.AccessToken
	}
	if tok == "" {
		return "", fmt.Errorf("%w: no token in response", errs.ErrAuthFailure)
	}
	return tok, nil
}
