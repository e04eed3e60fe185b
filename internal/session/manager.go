package session

import (
	"sync"
	"time"

	"github.com/lojasmm/askbot/internal/history"
)

// Manager owns the history of every conversation and serializes the work done
// on each one, so turns from messages arriving together for the same chat keep
// their order. Different conversations run in parallel.
type Manager struct {
	maxTurns int

	mu            sync.Mutex
	conversations map[string]*conversation

	// beforeLock runs between looking a conversation up and locking it.
	beforeLock func()
}

type conversation struct {
	mu       sync.Mutex
	history  *history.Buffer
	lastUsed time.Time
}

// NewManager returns a Manager whose conversations keep at most maxTurns turns.
func NewManager(maxTurns int) *Manager {
	return &Manager{
		maxTurns:      maxTurns,
		conversations: make(map[string]*conversation),
	}
}

func (m *Manager) get(key string) *conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[key]
	if !ok {
		c = &conversation{history: history.NewBuffer(m.maxTurns)}
		m.conversations[key] = c
	}
	return c
}

// lock returns the conversation for key with its lock held. A conversation
// dropped by Cleanup before the lock was taken is looked up again.
func (m *Manager) lock(key string) *conversation {
	for {
		c := m.get(key)
		if m.beforeLock != nil {
			m.beforeLock()
		}
		c.mu.Lock()

		m.mu.Lock()
		current := m.conversations[key] == c
		m.mu.Unlock()
		if current {
			return c
		}
		c.mu.Unlock()
	}
}

// WithLock runs fn with the conversation's history while holding its lock.
// The buffer must not be retained after fn returns.
func (m *Manager) WithLock(key string, fn func(h *history.Buffer) error) error {
	c := m.lock(key)
	defer c.mu.Unlock()

	c.lastUsed = time.Now()
	return fn(c.history)
}

// Reset clears the conversation's history, waiting for in-flight work on it.
func (m *Manager) Reset(key string) {
	m.WithLock(key, func(h *history.Buffer) error {
		h.Reset()
		return nil
	})
}

// Turns returns a copy of the conversation's history.
func (m *Manager) Turns(key string) []history.Turn {
	var turns []history.Turn
	m.WithLock(key, func(h *history.Buffer) error {
		turns = h.Turns()
		return nil
	})
	return turns
}

// Cleanup forgets conversations not used within maxAge, history included.
func (m *Manager) Cleanup(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, c := range m.conversations {
		if !c.mu.TryLock() {
			continue
		}
		idle := now.Sub(c.lastUsed) > maxAge
		c.mu.Unlock()
		if idle {
			delete(m.conversations, key)
		}
	}
}

// Len reports how many conversations are tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}
