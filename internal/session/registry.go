package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"mcp-gateway/internal/auth"
	"mcp-gateway/internal/logger"
)

// Registry owns a keyspace of live sessions. The gateway runs two
// registries: one for the streamable HTTP transport and a parallel one for
// the legacy SSE transport. Both follow the same create/lookup/teardown
// state machine but their keyspaces are never merged.
//
// Session entries are owned exclusively by the registry; no other component
// mutates the map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *logger.Logger
	name     string

	stopSweep chan struct{}
	sweepOnce sync.Once
	stopOnce  sync.Once
}

// NewRegistry creates an empty session registry. The name distinguishes the
// primary and legacy keyspaces in logs.
func NewRegistry(name string, log *logger.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		logger:    log,
		name:      name,
		stopSweep: make(chan struct{}),
	}
}

// Create mints a cryptographically random session identifier and stores a
// new active session. The identifier only exists once the bound handler has
// been constructed, so no request can observe a half-created session.
func (r *Registry) Create(identity *auth.Identity, handler Handler) *Session {
	id := uuid.NewString()
	s := newSession(id, identity, handler)

	r.mu.Lock()
	r.sessions[id] = s
	total := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session created",
		"keyspace", r.name,
		"session_id", id,
		"subject", identity.ID,
		"active_sessions", total,
	)
	return s
}

// Get looks up an active session by identifier. A successful lookup counts
// as client activity and defers idle expiry.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Remove terminates a session: the entry is deleted, its close hooks run,
// and subsequent lookups with the identifier fail. It reports whether the
// identifier was known.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	total := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.close()

	r.logger.Info("session terminated",
		"keyspace", r.name,
		"session_id", id,
		"active_sessions", total,
	)
	return true
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ExpireIdle terminates every session without client activity within
// maxIdle. Clients that vanish without an explicit termination request would
// otherwise hold their sessions forever. Returns the number of sessions
// expired.
func (r *Registry) ExpireIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	total := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
		r.logger.Info("session expired",
			"keyspace", r.name,
			"session_id", s.ID,
			"subject", s.Identity.ID,
			"active_sessions", total,
		)
	}
	return len(expired)
}

// StartSweeper launches the background idle-expiry worker. Starting twice is
// a no-op.
func (r *Registry) StartSweeper(maxIdle time.Duration) {
	r.sweepOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(maxIdle / 2)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					r.ExpireIdle(maxIdle)
				case <-r.stopSweep:
					return
				}
			}
		}()
	})
}

// StopSweeper stops the idle-expiry worker. Stopping twice is a no-op.
func (r *Registry) StopSweeper() {
	r.stopOnce.Do(func() {
		close(r.stopSweep)
	})
}
