package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mcp-gateway/internal/auth"
)

// sessionHeader is the streamable transport's session affinity header.
const sessionHeader = "Mcp-Session-Id"

// maxBodyBytes caps inbound protocol message size.
const maxBodyBytes = 4 << 20 // 4MB

// badRequestRPC writes the protocol-shaped client error used when session or
// initialization invariants are violated. The id field is always null: no
// session identifier accompanies a rejection.
func badRequestRPC(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	payload, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    -32000,
			"message": message,
		},
		"id": nil,
	})
	w.Write(payload)
}

// isInitializeRequest reports whether the message is a recognized
// session-establishing request.
func isInitializeRequest(body []byte) bool {
	var probe struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		ID      json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Method == "initialize" && len(probe.ID) > 0
}

// handleStreamablePost is the transport multiplexer: a request carrying a
// session header is forwarded to that session's bound dispatcher; a request
// without one must be an initialization request and triggers session
// creation.
func (s *Server) handleStreamablePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		badRequestRPC(w, "Bad Request: unable to read request body")
		return
	}

	if sid := r.Header.Get(sessionHeader); sid != "" {
		sess, ok := s.sessions.Get(sid)
		if !ok {
			s.logger.Warn("request for unknown session", "session_id", sid)
			badRequestRPC(w, "Bad Request: no valid session ID provided")
			return
		}

		out := sess.Handle(r.Context(), body)
		w.Header().Set(sessionHeader, sid)
		if out == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(out)
		return
	}

	// No session header: only a recognized initialization request may
	// create a session.
	if !isInitializeRequest(body) {
		badRequestRPC(w, "Bad Request: no valid session ID provided and request is not an initialization request")
		return
	}

	// Identity is resolved exactly once per session-establishing request;
	// a resolver failure is terminal and no session comes into existence.
	identity, err := s.resolver.Resolve(r.Context(), bearerFromRequest(r))
	if err != nil {
		s.logger.Warn("session creation rejected", "error", err)
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrUnauthenticated) {
			status = http.StatusInternalServerError
		}
		http.Error(w, "Unauthorized: authentication required", status)
		return
	}

	// The session id is minted only after the capability snapshot is
	// bound, so no request can observe a half-created session.
	bound := s.dispatcher.Bind(identity)
	sess := s.sessions.Create(identity, bound)
	bound.BindSession(sess.ID)

	out := sess.Handle(r.Context(), body)
	w.Header().Set(sessionHeader, sess.ID)
	if out == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

// handleStreamableGet opens the session's standalone notification stream.
func (s *Server) handleStreamableGet(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(sessionHeader)
	if sid == "" {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.Get(sid)
	if !ok {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}

	flusher := writeSSEHeaders(w)
	if flusher == nil {
		return
	}

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
			return
		}
	}
}

// handleStreamableDelete terminates a session explicitly.
func (s *Server) handleStreamableDelete(w http.ResponseWriter, r *http.Request) {
	sid := r.Header.Get(sessionHeader)
	if sid == "" || !s.sessions.Remove(sid) {
		http.Error(w, "Invalid or missing session ID", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
