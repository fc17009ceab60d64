package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mcp-gateway/internal/auth"
	"mcp-gateway/internal/logger"
)

type echoHandler struct {
	calls int
}

func (h *echoHandler) HandleMessage(_ context.Context, message json.RawMessage) json.RawMessage {
	h.calls++
	return message
}

func testIdentity(id string, perms ...string) *auth.Identity {
	return &auth.Identity{ID: id, Permissions: perms}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	log, err := logger.NewDefault()
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return NewRegistry("test", log)
}

func TestCreateAndGet(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create(testIdentity("alice"), &echoHandler{})

	if s.ID == "" {
		t.Fatal("expected a minted session id")
	}

	got, ok := reg.Get(s.ID)
	if !ok {
		t.Fatal("expected session lookup to succeed")
	}
	if got != s {
		t.Error("lookup returned a different session instance")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	reg := newTestRegistry(t)

	a := reg.Create(testIdentity("alice", "vault:read"), &echoHandler{})
	b := reg.Create(testIdentity("alice", "vault:read", "admin"), &echoHandler{})

	if a.ID == b.ID {
		t.Fatal("two sessions share an identifier")
	}
	// Same user, separately resolved permission snapshots.
	if len(a.Identity.Permissions) == len(b.Identity.Permissions) {
		t.Error("expected the two snapshots to differ as resolved")
	}

	reg.Remove(a.ID)
	if _, ok := reg.Get(b.ID); !ok {
		t.Error("removing one session affected another")
	}
}

func TestRemoveUnknownID(t *testing.T) {
	reg := newTestRegistry(t)
	if reg.Remove("not-a-session") {
		t.Error("expected Remove of unknown id to report false")
	}
}

func TestRemoveTerminatesSession(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create(testIdentity("bob"), &echoHandler{})

	closed := false
	s.OnClose(func() { closed = true })

	if !reg.Remove(s.ID) {
		t.Fatal("expected Remove to report true")
	}
	if !closed {
		t.Error("expected close hook to run")
	}
	if _, ok := reg.Get(s.ID); ok {
		t.Error("expected lookups after termination to fail")
	}

	select {
	case <-s.Done():
	default:
		t.Error("expected Done channel to be closed")
	}

	// Messages sent after teardown are discarded.
	if s.Send([]byte("late")) {
		t.Error("expected Send after termination to report false")
	}
}

func TestOnCloseAfterTerminationRunsImmediately(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create(testIdentity("carol"), &echoHandler{})
	reg.Remove(s.ID)

	ran := false
	s.OnClose(func() { ran = true })
	if !ran {
		t.Error("expected hook registered after close to run immediately")
	}
}

func TestHandleForwardsToBoundHandler(t *testing.T) {
	reg := newTestRegistry(t)
	h := &echoHandler{}
	s := reg.Create(testIdentity("dave"), h)

	msg := json.RawMessage(`{"jsonrpc":"2.0","method":"ping","id":1}`)
	got := s.Handle(context.Background(), msg)
	if string(got) != string(msg) {
		t.Errorf("Handle returned %s, want %s", got, msg)
	}
	if h.calls != 1 {
		t.Errorf("handler calls = %d, want 1", h.calls)
	}
}

func TestParallelKeyspacesNeverMerge(t *testing.T) {
	log, _ := logger.NewDefault()
	primary := NewRegistry("streamable", log)
	legacy := NewRegistry("sse", log)

	s := primary.Create(testIdentity("erin"), &echoHandler{})

	if _, ok := legacy.Get(s.ID); ok {
		t.Error("legacy keyspace resolved a primary session id")
	}
	if legacy.Len() != 0 {
		t.Errorf("legacy Len = %d, want 0", legacy.Len())
	}
}

func TestSendBuffersAndDelivers(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create(testIdentity("frank"), &echoHandler{})

	if !s.Send([]byte("one")) {
		t.Fatal("expected Send to succeed")
	}
	select {
	case got := <-s.Messages():
		if string(got) != "one" {
			t.Errorf("received %q, want %q", got, "one")
		}
	default:
		t.Fatal("expected a buffered message")
	}
}

func backdate(s *Session, d time.Duration) {
	s.activeMu.Lock()
	s.lastActive = time.Now().Add(-d)
	s.activeMu.Unlock()
}

func TestExpireIdleRemovesStaleSessions(t *testing.T) {
	reg := newTestRegistry(t)

	stale := reg.Create(testIdentity("grace"), &echoHandler{})
	fresh := reg.Create(testIdentity("heidi"), &echoHandler{})
	backdate(stale, time.Hour)

	if got := reg.ExpireIdle(30 * time.Minute); got != 1 {
		t.Fatalf("ExpireIdle = %d, want 1", got)
	}

	if _, ok := reg.Get(stale.ID); ok {
		t.Error("expired session must not be resolvable")
	}
	select {
	case <-stale.Done():
	default:
		t.Error("expired session must be closed")
	}
	if stale.Send([]byte("late")) {
		t.Error("expired session must not accept messages")
	}

	if _, ok := reg.Get(fresh.ID); !ok {
		t.Error("active session must survive the sweep")
	}
}

func TestActivityDefersExpiry(t *testing.T) {
	reg := newTestRegistry(t)
	s := reg.Create(testIdentity("ivan"), &echoHandler{})
	backdate(s, time.Hour)

	// Handling a message counts as activity.
	s.Handle(context.Background(), json.RawMessage(`{}`))

	if got := reg.ExpireIdle(30 * time.Minute); got != 0 {
		t.Errorf("ExpireIdle = %d after recent activity, want 0", got)
	}

	// So does a registry lookup, mirroring how the transports resolve a
	// session before forwarding to it.
	backdate(s, time.Hour)
	if _, ok := reg.Get(s.ID); !ok {
		t.Fatal("expected session lookup to succeed")
	}
	if got := reg.ExpireIdle(30 * time.Minute); got != 0 {
		t.Errorf("ExpireIdle = %d after lookup, want 0", got)
	}
}

func TestSweeperStartStopIdempotent(t *testing.T) {
	reg := newTestRegistry(t)

	reg.StartSweeper(time.Hour)
	reg.StartSweeper(time.Hour)
	reg.StopSweeper()
	reg.StopSweeper()
}
