package session

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/credstore"
	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/tokenguard"
)

// Listener observes every new snapshot after a dispatch.
type Listener func(Session)

// Store owns the session and the persisted credential. Create one per process with New
// and share the pointer; consumers only Dispatch and read snapshots.
type Store struct {
	mu        sync.RWMutex
	state     Session
	persist   credstore.Store
	guard     *tokenguard.Guard
	log       *zap.Logger
	listeners []subscriber
	nextID    int
}

type subscriber struct {
	id int
	fn Listener
}

// New restores the session from persisted storage. A persisted credential that is still
// valid starts the store Authenticated; anything else starts it Anonymous and the stale
// value is cleared.
func New(persist credstore.Store, guard *tokenguard.Guard, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		persist:   persist,
		guard:     guard,
		log:       log,
	}

	cred, err := persist.Load()
	switch {
	case errors.Is(err, errs.ErrNotFound):
	case err != nil:
		log.Warn("session: load persisted credential", zap.Error(err))
	default:
		restored := Reduce(guard, Session{}, AuthSuccess{Credential: cred})
		if restored.Authenticated() {
			s.state = restored
			log.Debug("session: restored", zap.String("subject", restored.Identity.Subject))
			return s
		}
		log.Info("session: discarding persisted credential", zap.String("reason", restored.LastError))
		if err := persist.Clear(); err != nil {
			log.Warn("session: clear stale credential", zap.Error(err))
		}
	}
	return s
}

// CurrentSession returns the snapshot reflecting the last applied action.
func (s *Store) CurrentSession() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ValidCredential returns the current credential if it is still valid now.
func (s *Store) ValidCredential() (string, bool) {
	cur := s.CurrentSession()
	if !cur.Authenticated() || !s.guard.IsValid(cur.Credential) {
		return "", false
	}
	return cur.Credential, true
}

// Guard exposes the guard the store validates with.
func (s *Store) Guard() *tokenguard.Guard { return s.guard }

// Dispatch applies a synchronously and returns the new snapshot. It never fails;
// persistence errors are logged.
func (s *Store) Dispatch(a Action) Session {
	if a == nil {
		return s.CurrentSession()
	}
	s.mu.Lock()
	prev := s.state
	next := Reduce(s.guard, prev, a)
	s.state = next
	s.sync(prev, next)
	listeners := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.fn
	}
	s.mu.Unlock()

	s.log.Info("session: dispatch",
		zap.String("action", a.Kind()),
		zap.Stringer("from", prev.Status),
		zap.Stringer("to", next.Status),
	)
	for _, l := range listeners {
		l(next)
	}
	return next
}

// sync mirrors the credential into persistent storage. Caller holds mu.
func (s *Store) sync(prev, next Session) {
	switch {
	case next.Authenticated():
		if next.Credential == prev.Credential {
			return
		}
		if err := s.persist.Save(next.Credential); err != nil {
			s.log.Error("session: persist credential", zap.Error(err))
		}
	case next.Status == Authenticating:
		// AUTH_START has no side effect; the outcome of the exchange decides
		return
	default:
		if err := s.persist.Clear(); err != nil {
			s.log.Error("session: clear credential", zap.Error(err))
		}
	}
}

// Subscribe registers l and returns a function removing it. Listeners are notified in
// subscription order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscriber{id: id, fn: l})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(sub subscriber) bool { return sub.id == id })
		})
	}
}
