package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/api"
	"github.com/and161185/homeheaven/internal/config"
	"github.com/and161185/homeheaven/internal/credstore"
	"github.com/and161185/homeheaven/internal/crypto/clientcrypto"
	"github.com/and161185/homeheaven/internal/mutation"
	"github.com/and161185/homeheaven/internal/service"
	"github.com/and161185/homeheaven/internal/session"
	"github.com/and161185/homeheaven/internal/tokenguard"
	"github.com/and161185/homeheaven/internal/views"
)

// app wires one process worth of components around a single session store.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	in       io.Reader
	lines    *bufio.Reader
	out      io.Writer
	client   *api.Client
	sessions *session.Store
	auth     *service.AuthService
	wishlist *service.Wishlist
	coord    *mutation.Coordinator
	profile  *views.Profile
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, in io.Reader, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, log: log, in: in, out: out}

	persist, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.client = api.New(cfg.API.BaseURL, cfg.API.Prefix, cfg.API.Timeout, api.WithLogger(log.Named("api")))
	a.sessions = session.New(persist, tokenguard.New(), log.Named("session"))
	a.auth = service.NewAuthService(a.client, a.sessions,
		api.Credentials{Email: cfg.Demo.Email, Password: cfg.Demo.Password}, log.Named("auth"))
	a.wishlist = service.NewWishlist(a.client, a.sessions, log.Named("wishlist"))
	a.coord = mutation.New(a.client, a.sessions,
		mutation.WithLogger(log.Named("mutation")),
		mutation.WithUploadConcurrency(cfg.Uploads.Concurrency),
		mutation.WithPlaceholder(cfg.Uploads.PlaceholderURL),
	)
	a.profile = views.NewProfile(a.client, a.sessions, a.auth.Logout, log.Named("profile"))
	return a, nil
}

// openStore builds the configured credential store, sealed when requested.
func (a *app) openStore(ctx context.Context) (credstore.Store, error) {
	st := a.cfg.Storage
	if st.Backend == config.StorageMemory {
		return credstore.NewMemory(), nil
	}
	if err := os.MkdirAll(st.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	var store credstore.Store
	switch st.Backend {
	case config.StorageSQLite:
		db, err := credstore.OpenSQLite(ctx, filepath.Join(st.Dir, "local.db"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store = db
	default:
		store = credstore.NewFile(st.Dir)
	}

	if st.Seal {
		key, err := clientcrypto.LoadOrCreateKey(filepath.Join(st.Dir, "storage.key"))
		if err != nil {
			return nil, fmt.Errorf("storage key: %w", err)
		}
		store = credstore.NewSealed(store, key, a.log.Named("credstore"))
	}
	return store, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close", zap.Error(err))
		}
	}
}
