package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/session"
)

type fakeWishlistAPI struct {
	addErr error
	adds   []model.WishlistEntry
	tokens []string
	saved  []model.Listing
}

var _ WishlistAPI = (*fakeWishlistAPI)(nil)

func (f *fakeWishlistAPI) AddToWishlist(_ context.Context, token string, userID, listingID int64) error {
	f.adds = append(f.adds, model.WishlistEntry{UserID: userID, ListingID: listingID})
	f.tokens = append(f.tokens, token)
	return f.addErr
}

func (f *fakeWishlistAPI) GetWishlist(_ context.Context, token string, _ int64) ([]model.Listing, error) {
	f.tokens = append(f.tokens, token)
	return f.saved, nil
}

func TestWishlist_GatedOnValidCredential(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st, _ := newStore(t, &now)
	fake := &fakeWishlistAPI{}
	w := NewWishlist(fake, st, zaptest.NewLogger(t))
	ctx := context.Background()

	err := w.Add(ctx, 7)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.Contains(t, err.Error(), LoginRequiredMessage)
	require.Empty(t, fake.adds)

	tok := tokenFor(t, "42", fixedNow.Add(time.Minute))
	st.Dispatch(session.AuthSuccess{Credential: tok})

	require.NoError(t, w.Add(ctx, 7))
	require.Equal(t, []model.WishlistEntry{{UserID: 42, ListingID: 7}}, fake.adds)
	require.Equal(t, tok, fake.tokens[0])

	// the credential expires while the session still reads authenticated
	now = fixedNow.Add(2 * time.Minute)
	require.Equal(t, session.Authenticated, st.CurrentSession().Status)
	require.ErrorIs(t, w.Add(ctx, 8), errs.ErrUnauthenticated)
	_, err = w.List(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.Len(t, fake.adds, 1)
}

func TestWishlist_ListAndRemoteError(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st, _ := newStore(t, &now)
	st.Dispatch(session.AuthSuccess{Credential: tokenFor(t, "5", fixedNow.Add(time.Hour))})

	fake := &fakeWishlistAPI{saved: []model.Listing{{ID: 1, Title: "Cabin"}}, addErr: errors.New("already saved")}
	w := NewWishlist(fake, st, nil)

	got, err := w.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	err = w.Add(context.Background(), 1)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestWishlist_NonNumericSubject(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st, _ := newStore(t, &now)
	st.Dispatch(session.AuthSuccess{Credential: tokenFor(t, "ann", fixedNow.Add(time.Hour))})

	fake := &fakeWishlistAPI{}
	err := NewWishlist(fake, st, nil).Add(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.Empty(t, fake.adds)
}
