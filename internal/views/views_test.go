package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/homeheaven/internal/credstore"
	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/mutation"
	"github.com/and161185/homeheaven/internal/session"
	"github.com/and161185/homeheaven/internal/tokenguard"
)

var fixedNow = time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T, now *time.Time) *session.Store {
	t.Helper()
	g := tokenguard.New(tokenguard.WithClock(func() time.Time { return *now }))
	return session.New(credstore.NewMemory(), g, zaptest.NewLogger(t))
}

func tokenFor(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "exp": exp.Unix()}).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func labels(items []MenuItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestMenu_FollowsSession(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st := newStore(t, &now)

	var renders int
	m := NewMenu(st, func([]MenuItem) { renders++ })
	defer m.Close()
	require.Equal(t, []string{"Listings", "Log In", "Sign Up"}, labels(m.Items()))

	st.Dispatch(session.AuthSuccess{Credential: tokenFor(t, "1", fixedNow.Add(time.Hour))})
	require.Equal(t, []string{"Listings", "Wishlist", "Profile", "AI Search"}, labels(m.Items()))

	st.Dispatch(session.Logout{})
	require.Equal(t, []string{"Listings", "Log In", "Sign Up"}, labels(m.Items()))
	require.Equal(t, 3, renders)

	m.Close()
	st.Dispatch(session.AuthSuccess{Credential: tokenFor(t, "1", fixedNow.Add(time.Hour))})
	require.Equal(t, 3, renders)
}

type fakeMutator struct {
	createRes *mutation.CreateResult
	createErr error
	editRes   model.ListingUpdate
	editErr   error
	gate      chan struct{} // when set, calls wait for it
}

var _ Mutator = (*fakeMutator)(nil)

func (f *fakeMutator) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeMutator) Create(context.Context, model.ListingDraft) (*mutation.CreateResult, error) {
	f.wait()
	return f.createRes, f.createErr
}

func (f *fakeMutator) Edit(context.Context, model.Listing, model.ListingDraft) (model.ListingUpdate, error) {
	f.wait()
	return f.editRes, f.editErr
}

func TestEditor_CreateAppends(t *testing.T) {
	t.Parallel()
	fail := &mutation.AttachmentFailure{Slot: 0, Caption: "front", Err: errors.New("too large")}
	img := model.Image{URL: "https://img/2"}
	f := &fakeMutator{createRes: &mutation.CreateResult{
		Listing: model.Listing{ID: 9, Title: "New", Images: []model.Image{img}},
		Attachments: []mutation.AttachmentResult{
			{Slot: 0, Caption: "front", Failure: fail},
			{Slot: 1, Caption: "back", Image: &img},
		},
	}}
	e := NewEditor(f, []model.Listing{{ID: 1}}, zaptest.NewLogger(t))
	e.OpenCreate()
	e.Update(func(d *model.ListingDraft) { d.Title, d.Price = "New", "10" })
	require.NoError(t, e.SetImage(0, model.ImageSlot{Filename: "a.jpg", Payload: []byte("a")}))
	require.ErrorIs(t, e.SetImage(model.MaxImageSlots, model.ImageSlot{}), errs.ErrValidation)

	require.NoError(t, e.Submit(context.Background()))
	got := e.Listings()
	require.Len(t, got, 2)
	require.Equal(t, int64(9), got[1].ID)
	require.False(t, e.IsOpen())
	require.Empty(t, e.Message())
	require.Len(t, e.Notices(), 1)
	require.Contains(t, e.Notices()[0], "Image 1 (front)")
}

func TestEditor_EditFailureKeepsState(t *testing.T) {
	t.Parallel()
	f := &fakeMutator{editErr: fmt.Errorf("%w: 500", errs.ErrUpdateFailed)}
	before := []model.Listing{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}}
	e := NewEditor(f, before, nil)
	e.OpenEdit(before[1])
	e.Update(func(d *model.ListingDraft) { d.Title = "B2" })

	err := e.Submit(context.Background())
	require.ErrorIs(t, err, errs.ErrUpdateFailed)
	require.Equal(t, MsgUpdateFailed, e.Message())
	require.True(t, e.IsOpen())
	require.Equal(t, "B2", e.Draft().Title)

	after := e.Listings()
	require.Same(t, &before[0], &after[0])
	require.Equal(t, "B", after[1].Title)
}

func TestEditor_EditSuccessMerges(t *testing.T) {
	t.Parallel()
	f := &fakeMutator{editRes: model.ListingUpdate{Listing: model.Listing{ID: 2, Title: "B2", Price: 20}}}
	before := []model.Listing{{ID: 1, Title: "A"}, {ID: 2, Title: "B", City: "Boise", Price: 10}}
	e := NewEditor(f, before, nil)
	e.OpenEdit(before[1])
	require.Equal(t, ModeEdit, e.Mode())
	require.Equal(t, "10", e.Draft().Price)

	require.NoError(t, e.Submit(context.Background()))
	got := e.Listings()[1]
	require.Equal(t, "B2", got.Title)
	require.Equal(t, "Boise", got.City)
	require.Equal(t, 20.0, got.Price)
	require.Equal(t, "B", before[1].Title)
}

func TestEditor_EditClearsFields(t *testing.T) {
	t.Parallel()
	beds := 3
	before := []model.Listing{{ID: 2, Title: "B", Description: "sunny porch", Bedrooms: &beds, City: "Boise"}}

	upd, err := model.NewListingUpdate([]byte(`{"id":2,"title":"B","description":"","bedrooms":null}`))
	require.NoError(t, err)
	e := NewEditor(&fakeMutator{editRes: upd}, before, nil)
	e.OpenEdit(before[0])
	require.Equal(t, "3", e.Draft().Bedrooms)
	e.Update(func(d *model.ListingDraft) { d.Description, d.Bedrooms = "", "" })

	require.NoError(t, e.Submit(context.Background()))
	got := e.Listings()[0]
	require.Empty(t, got.Description)
	require.Nil(t, got.Bedrooms)
	require.Equal(t, "Boise", got.City)
	require.Equal(t, "sunny porch", before[0].Description)
	require.Equal(t, 3, *before[0].Bedrooms)
}

func TestEditor_CreateMessages(t *testing.T) {
	t.Parallel()
	f := &fakeMutator{createErr: fmt.Errorf("%w: title", errs.ErrValidation)}
	e := NewEditor(f, nil, nil)
	e.OpenCreate()
	require.Error(t, e.Submit(context.Background()))
	require.Equal(t, MsgValidation, e.Message())

	f.createErr = fmt.Errorf("%w: boom", errs.ErrCreateFailed)
	require.Error(t, e.Submit(context.Background()))
	require.Equal(t, MsgCreateFailed, e.Message())
	require.Empty(t, e.Listings())
}

func TestEditor_LateResultDropped(t *testing.T) {
	t.Parallel()
	f := &fakeMutator{
		gate:      make(chan struct{}),
		createRes: &mutation.CreateResult{Listing: model.Listing{ID: 5}},
	}
	e := NewEditor(f, nil, zaptest.NewLogger(t))
	e.OpenCreate()

	done := make(chan error, 1)
	go func() { done <- e.Submit(context.Background()) }()
	e.Dismiss()
	close(f.gate)

	require.ErrorIs(t, <-done, ErrDismissed)
	require.Empty(t, e.Listings())
	require.ErrorIs(t, e.Submit(context.Background()), ErrDismissed)
}

type fakeProfileAPI struct {
	tokens  []string
	profile model.Profile
}

var _ ProfileAPI = (*fakeProfileAPI)(nil)

func (f *fakeProfileAPI) GetProfile(_ context.Context, token string, userID int64) (model.Profile, error) {
	f.tokens = append(f.tokens, token)
	p := f.profile
	p.ID = userID
	return p, nil
}

func (f *fakeProfileAPI) UploadProfileImage(_ context.Context, token string, userID int64, img model.ImageSlot) (model.Profile, error) {
	f.tokens = append(f.tokens, token)
	p := f.profile
	p.ID = userID
	p.AvatarURL = "https://img/" + img.Filename
	return p, nil
}

func TestProfile_LoadUploadLogout(t *testing.T) {
	t.Parallel()
	now := fixedNow
	st := newStore(t, &now)
	f := &fakeProfileAPI{profile: model.Profile{Username: "ann"}}
	p := NewProfile(f, st, func() session.Session { return st.Dispatch(session.Logout{}) }, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)

	tok := tokenFor(t, "12", fixedNow.Add(time.Hour))
	st.Dispatch(session.AuthSuccess{Credential: tok})

	prof, err := p.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(12), prof.ID)

	_, err = p.UploadAvatar(ctx, model.ImageSlot{})
	require.ErrorIs(t, err, errs.ErrValidation)

	prof, err = p.UploadAvatar(ctx, model.ImageSlot{Filename: "me.png", Payload: []byte("png")})
	require.NoError(t, err)
	require.Equal(t, "https://img/me.png", prof.AvatarURL)
	require.Equal(t, []string{tok, tok}, f.tokens)

	require.Equal(t, session.Anonymous, p.Logout().Status)
	require.False(t, st.CurrentSession().Authenticated())
}
