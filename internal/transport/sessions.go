package transport

import (
	"context"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/opencode-ai/docsbridge/internal/logging"
)

// SessionTable tracks live protocol sessions across concurrent exchanges.
// Safe for concurrent use.
type SessionTable struct {
	mu     sync.RWMutex
	active map[string]time.Time
}

// NewSessionTable creates an empty session table.
func NewSessionTable() *SessionTable {
	return &SessionTable{active: make(map[string]time.Time)}
}

// Add records a session as live. Re-adding refreshes its start time.
func (t *SessionTable) Add(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[id] = time.Now()
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (t *SessionTable) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, id)
}

// Contains reports whether the session is live.
func (t *SessionTable) Contains(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.active[id]
	return ok
}

// Len returns the number of live sessions.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.active)
}

// Hooks returns MCP server hooks that keep the table in sync with session
// registration and teardown.
func (t *SessionTable) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		t.Add(session.SessionID())
		logging.Debug().Str("session", session.SessionID()).Int("active", t.Len()).Msg("session registered")
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		t.Remove(session.SessionID())
		logging.Debug().Str("session", session.SessionID()).Int("active", t.Len()).Msg("session closed")
	})
	return hooks
}
