// Package views binds the session store and the mutation coordinator to screen state.
package views

import (
	"sync"

	"github.com/and161185/homeheaven/internal/session"
)

// MenuItem is one navigation entry.
type MenuItem struct {
	Label string
	Path  string
}

var (
	anonymousMenu = []MenuItem{
		{Label: "Listings", Path: "/"},
		{Label: "Log In", Path: "/login"},
		{Label: "Sign Up", Path: "/register"},
	}
	memberMenu = []MenuItem{
		{Label: "Listings", Path: "/"},
		{Label: "Wishlist", Path: "/wishlist"},
		{Label: "Profile", Path: "/profile"},
		{Label: "AI Search", Path: "/ai-search"},
	}
)

// MenuItems returns the navigation for a viewer holding a valid credential or not.
func MenuItems(valid bool) []MenuItem {
	if valid {
		return append([]MenuItem(nil), memberMenu...)
	}
	return append([]MenuItem(nil), anonymousMenu...)
}

// SessionSource is what the navigation needs from the session store.
type SessionSource interface {
	ValidCredential() (string, bool)
	Subscribe(l session.Listener) (unsubscribe func())
}

// Menu keeps the navigation in step with the session.
type Menu struct {
	mu          sync.Mutex
	src         SessionSource
	items       []MenuItem
	render      func([]MenuItem)
	unsubscribe func()
}

// NewMenu computes the initial items and re-renders after every dispatch.
// render may be nil.
func NewMenu(src SessionSource, render func([]MenuItem)) *Menu {
	m := &Menu{src: src, render: render}
	m.refresh()
	m.unsubscribe = src.Subscribe(func(session.Session) { m.refresh() })
	return m
}

// Items returns the current navigation entries.
func (m *Menu) Items() []MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MenuItem(nil), m.items...)
}

// Close stops following the session.
func (m *Menu) Close() { m.unsubscribe() }

func (m *Menu) refresh() {
	_, valid := m.src.ValidCredential()
	items := MenuItems(valid)
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	if m.render != nil {
		m.render(items)
	}
}
