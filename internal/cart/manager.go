package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Manager keeps one cart per session. Carts live in process memory only and
// start empty; there is nothing to load at startup or flush at shutdown.
type Manager struct {
	mu     sync.RWMutex
	stores map[string]*Store
}

// NewManager creates an empty session cart registry.
func NewManager() *Manager {
	return &Manager{stores: make(map[string]*Store)}
}

// NewSession creates a fresh cart and returns its session id.
func (m *Manager) NewSession() (string, *Store) {
	id := uuid.NewString()
	store := NewStore()

	m.mu.Lock()
	m.stores[id] = store
	m.mu.Unlock()

	return id, store
}

// Get returns the cart for a session id, or nil when the session is unknown.
func (m *Manager) Get(id string) *Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores[id]
}

// GetOrCreate returns the cart for a session id, creating one when the id is
// unknown (a returning client whose server-side cart was lost gets an empty
// cart rather than an error).
func (m *Manager) GetOrCreate(id string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[id]
	if !ok {
		store = NewStore()
		m.stores[id] = store
	}
	return store
}

// Drop forgets a session's cart.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	delete(m.stores, id)
	m.mu.Unlock()
}
