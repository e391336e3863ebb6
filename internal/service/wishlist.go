package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/session"
)

// LoginRequiredMessage is shown when a wishlist action is attempted without a valid credential.
const LoginRequiredMessage = "Please log in to add items to wishlist"

// WishlistAPI is the remote wishlist service.
type WishlistAPI interface {
	AddToWishlist(ctx context.Context, token string, userID, listingID int64) error
	GetWishlist(ctx context.Context, token string, userID int64) ([]model.Listing, error)
}

// Sessions is the read side of the session store.
type Sessions interface {
	CurrentSession() session.Session
	ValidCredential() (string, bool)
}

// Wishlist is the only client-side authorization gate: without a currently valid
// credential no request is made.
type Wishlist struct {
	api      WishlistAPI
	sessions Sessions
	log      *zap.Logger
}

// NewWishlist constructs Wishlist.
func NewWishlist(a WishlistAPI, sessions Sessions, log *zap.Logger) *Wishlist {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wishlist{api: a, sessions: sessions, log: log}
}

// Add saves listingID for the session user. Fails with errs.ErrUnauthenticated locally
// when the credential is absent, malformed or expired.
func (w *Wishlist) Add(ctx context.Context, listingID int64) error {
	token, userID, err := w.credential()
	if err != nil {
		return err
	}
	if err := w.api.AddToWishlist(ctx, token, userID, listingID); err != nil {
		w.log.Warn("wishlist add failed", zap.Int64("listing_id", listingID), zap.Error(err))
		return err
	}
	w.log.Info("wishlist add", zap.Int64("listing_id", listingID))
	return nil
}

// List returns the session user's saved listings, with the same gate as Add.
func (w *Wishlist) List(ctx context.Context) ([]model.Listing, error) {
	token, userID, err := w.credential()
	if err != nil {
		return nil, err
	}
	return w.api.GetWishlist(ctx, token, userID)
}

func (w *Wishlist) credential() (string, int64, error) {
	token, ok := w.sessions.ValidCredential()
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", errs.ErrUnauthenticated, LoginRequiredMessage)
	}
	userID, err := subjectID(w.sessions.CurrentSession())
	if err != nil {
		return "", 0, err
	}
	return token, userID, nil
}
