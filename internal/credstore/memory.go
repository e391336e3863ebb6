package credstore

import (
	"sync"

	"github.com/and161185/homeheaven/internal/errs"
)

// Memory keeps the credential in process memory.
type Memory struct {
	mu    sync.Mutex
	value string
	set   bool
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return "", errs.ErrNotFound
	}
	return m.value, nil
}

func (m *Memory) Save(credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = credential, true
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.set = "", false
	return nil
}
