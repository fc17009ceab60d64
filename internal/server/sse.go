package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mcp-gateway/internal/auth"
)

// handleLegacyStream establishes a legacy SSE session. The stream's first
// event tells the client where to post messages; responses come back over
// this stream. Legacy sessions live in their own keyspace, parallel to the
// streamable one, and follow the identical create/lookup/teardown machine.
func (s *Server) handleLegacyStream(w http.ResponseWriter, r *http.Request) {
	identity, err := s.resolver.Resolve(r.Context(), bearerFromRequest(r))
	if err != nil {
		s.logger.Warn("legacy session creation rejected", "error", err)
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrUnauthenticated) {
			status = http.StatusInternalServerError
		}
		http.Error(w, "Unauthorized: authentication required", status)
		return
	}

	bound := s.dispatcher.Bind(identity)
	sess := s.legacy.Create(identity, bound)
	bound.BindSession(sess.ID)

	flusher := writeSSEHeaders(w)
	if flusher == nil {
		s.legacy.Remove(sess.ID)
		return
	}

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.ID)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case msg := <-sess.Messages():
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		case <-keepalive.C:
			// An open stream counts as activity; a quiet but connected
			// client must not be swept.
			sess.Touch()
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-sess.Done():
			return
		case <-r.Context().Done():
			// Client disconnect tears the session down; in-flight
			// callbacks finish but their responses are discarded.
			s.legacy.Remove(sess.ID)
			return
		}
	}
}

// handleLegacyMessage delivers one message into an existing legacy session.
// The response is streamed over the session's SSE connection, not this one.
func (s *Server) handleLegacyMessage(w http.ResponseWriter, r *http.Request) {
	sid := r.URL.Query().Get("sessionId")
	if sid == "" {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}
	sess, ok := s.legacy.Get(sid)
	if !ok {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "unable to read request body", http.StatusBadRequest)
		return
	}

	if out := sess.Handle(r.Context(), body); out != nil {
		if !sess.Send(out) {
			s.logger.Warn("discarding response for closed legacy stream",
				"session_id", sid,
			)
		}
	}
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte("Accepted"))
}
