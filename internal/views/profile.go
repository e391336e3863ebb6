package views

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/session"
)

// ProfileAPI is the remote profile service.
type ProfileAPI interface {
	GetProfile(ctx context.Context, token string, userID int64) (model.Profile, error)
	UploadProfileImage(ctx context.Context, token string, userID int64, img model.ImageSlot) (model.Profile, error)
}

// SessionReader is the snapshot side of the session store.
type SessionReader interface {
	CurrentSession() session.Session
}

// LogoutFunc ends the session.
type LogoutFunc func() session.Session

// Profile is the signed-in user's page.
type Profile struct {
	api      ProfileAPI
	sessions SessionReader
	logout   LogoutFunc
	log      *zap.Logger
}

// NewProfile constructs Profile.
func NewProfile(a ProfileAPI, sessions SessionReader, logout LogoutFunc, log *zap.Logger) *Profile {
	if log == nil {
		log = zap.NewNop()
	}
	return &Profile{api: a, sessions: sessions, logout: logout, log: log}
}

// Load fetches the profile with its owned listings.
func (p *Profile) Load(ctx context.Context) (model.Profile, error) {
	token, userID, err := p.user()
	if err != nil {
		return model.Profile{}, err
	}
	return p.api.GetProfile(ctx, token, userID)
}

// UploadAvatar replaces the avatar and returns the refreshed profile.
func (p *Profile) UploadAvatar(ctx context.Context, img model.ImageSlot) (model.Profile, error) {
	if img.Empty() {
		return model.Profile{}, fmt.Errorf("%w: no image selected", errs.ErrValidation)
	}
	token, userID, err := p.user()
	if err != nil {
		return model.Profile{}, err
	}
	prof, err := p.api.UploadProfileImage(ctx, token, userID, img)
	if err != nil {
		p.log.Warn("avatar upload failed", zap.Int64("user_id", userID), zap.Error(err))
		return model.Profile{}, err
	}
	return prof, nil
}

// Logout ends the session from the profile page.
func (p *Profile) Logout() session.Session { return p.logout() }

func (p *Profile) user() (string, int64, error) {
	cur := p.sessions.CurrentSession()
	if !cur.Authenticated() {
		return "", 0, fmt.Errorf("%w: log in to view your profile", errs.ErrUnauthenticated)
	}
	id, err := strconv.ParseInt(cur.Identity.Subject, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: subject %q is not a user id", errs.ErrUnauthenticated, cur.Identity.Subject)
	}
	return cur.Credential, id, nil
}
