package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mcp-gateway/internal/auth"
)

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type authHealthResponse struct {
	healthResponse
	Identity struct {
		ID          string   `json:"id"`
		Email       string   `json:"email,omitempty"`
		Name        string   `json:"name,omitempty"`
		Permissions []string `json:"permissions"`
	} `json:"identity"`
}

func (s *Server) healthStatus() healthResponse {
	return healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     s.config.Logger.Version,
		Environment: s.config.Environment,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.healthStatus()); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}

// handleHealthAuth reports liveness plus the identity the caller's bearer
// credential resolves to. Useful for verifying permission wiring without
// establishing a session.
func (s *Server) handleHealthAuth(w http.ResponseWriter, r *http.Request) {
	identity, err := s.resolver.Resolve(r.Context(), bearerFromRequest(r))
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, auth.ErrUnauthenticated) {
			status = http.StatusInternalServerError
		}
		http.Error(w, "Unauthorized: authentication required", status)
		return
	}

	resp := authHealthResponse{healthResponse: s.healthStatus()}
	resp.Identity.ID = identity.ID
	resp.Identity.Email = identity.Email
	resp.Identity.Name = identity.Name
	resp.Identity.Permissions = identity.Permissions
	if resp.Identity.Permissions == nil {
		resp.Identity.Permissions = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}
