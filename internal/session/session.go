package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mcp-gateway/internal/auth"
)

// Handler is the bound per-session dispatcher a transport forwards messages
// into. It returns the serialized response, or nil for notifications.
type Handler interface {
	HandleMessage(ctx context.Context, message json.RawMessage) json.RawMessage
}

// Session pairs a transport connection with the permission-filtered
// capability snapshot captured at creation. The snapshot is fixed for the
// session's lifetime: permission changes for the user do not retroactively
// alter an active session.
type Session struct {
	ID       string
	Identity *auth.Identity

	handler   Handler
	createdAt time.Time

	activeMu   sync.Mutex
	lastActive time.Time

	// outbound carries server-to-client messages for the session's
	// streaming connection. Messages sent after teardown are discarded.
	outbound chan []byte

	done      chan struct{}
	closeOnce sync.Once
	onClose   []func()
	closeMu   sync.Mutex

	// handleMu serializes message handling so requests within one session
	// are processed in arrival order.
	handleMu sync.Mutex
}

func newSession(id string, identity *auth.Identity, handler Handler) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Identity:   identity,
		handler:    handler,
		createdAt:  now,
		lastActive: now,
		outbound:   make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Handle forwards a message into the bound dispatcher. Messages for one
// session are handled strictly in arrival order.
func (s *Session) Handle(ctx context.Context, message json.RawMessage) json.RawMessage {
	s.Touch()
	s.handleMu.Lock()
	defer s.handleMu.Unlock()
	return s.handler.HandleMessage(ctx, message)
}

// Touch records client activity, deferring idle expiry.
func (s *Session) Touch() {
	s.activeMu.Lock()
	s.lastActive = time.Now()
	s.activeMu.Unlock()
}

// LastActive returns the time of the most recent client activity.
func (s *Session) LastActive() time.Time {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return s.lastActive
}

// Send enqueues a server-to-client message for the session's streaming
// connection. It reports false when the session is terminated or the stream
// buffer is full; in either case the message is discarded.
func (s *Session) Send(message []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbound <- message:
		return true
	default:
		return false
	}
}

// Messages returns the outbound stream channel.
func (s *Session) Messages() <-chan []byte {
	return s.outbound
}

// Done is closed when the session is terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// OnClose registers a hook invoked exactly once when the session is
// terminated. Hooks registered after termination run immediately.
func (s *Session) OnClose(hook func()) {
	s.closeMu.Lock()
	select {
	case <-s.done:
		s.closeMu.Unlock()
		hook()
		return
	default:
	}
	s.onClose = append(s.onClose, hook)
	s.closeMu.Unlock()
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeMu.Lock()
		hooks := s.onClose
		s.onClose = nil
		s.closeMu.Unlock()
		for _, hook := range hooks {
			hook()
		}
	})
}
