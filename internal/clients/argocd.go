package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

// ArgoCD wraps the GitOps controller's application API.
type ArgoCD struct {
	api *httpAPI
}

// NewArgoCD creates an ArgoCD client from collaborator configuration.
func NewArgoCD(cfg config.CollaboratorConfig, log *logger.Logger) *ArgoCD {
	token := cfg.Token
	return &ArgoCD{
		api: newHTTPAPI("argocd", cfg.URL, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}, log),
	}
}

// Application is a GitOps-managed application with its sync state.
type Application struct {
	Metadata struct {
		Name    string `json:"name"`
		Project string `json:"project,omitempty"`
	} `json:"metadata"`
	Spec   map[string]interface{} `json:"spec,omitempty"`
	Status struct {
		Sync struct {
			Status   string `json:"status"`
			Revision string `json:"revision,omitempty"`
		} `json:"sync"`
		Health struct {
			Status string `json:"status"`
		} `json:"health"`
	} `json:"status"`
}

type applicationList struct {
	Items []Application `json:"items"`
}

// ListApplications returns application names, optionally filtered by
// project, sorted. Failures degrade to an empty list.
func (a *ArgoCD) ListApplications(ctx context.Context, project string) []string {
	path := "/api/v1/applications"
	if project != "" {
		path += "?projects=" + url.QueryEscape(project)
	}
	var resp applicationList
	if err := a.api.getJSON(ctx, path, &resp); err != nil {
		a.api.warnListFailure("applications", err)
		return []string{}
	}
	names := make([]string, 0, len(resp.Items))
	for _, app := range resp.Items {
		names = append(names, app.Metadata.Name)
	}
	sort.Strings(names)
	return names
}

// GetApplication reads one application; failures propagate.
func (a *ArgoCD) GetApplication(ctx context.Context, name string) (*Application, error) {
	var app Application
	path := "/api/v1/applications/" + url.PathEscape(name)
	if err := a.api.getJSON(ctx, path, &app); err != nil {
		return nil, fmt.Errorf("failed to read application %q: %w", name, err)
	}
	return &app, nil
}

// SyncApplication triggers a sync and returns the refreshed application.
func (a *ArgoCD) SyncApplication(ctx context.Context, name string) (*Application, error) {
	var app Application
	path := "/api/v1/applications/" + url.PathEscape(name) + "/sync"
	if err := a.api.sendJSON(ctx, http.MethodPost, path, map[string]interface{}{}, &app); err != nil {
		return nil, fmt.Errorf("failed to sync application %q: %w", name, err)
	}
	return &app, nil
}

// UpsertApplication creates or updates an application declaratively.
func (a *ArgoCD) UpsertApplication(ctx context.Context, spec map[string]interface{}) (*Application, error) {
	var app Application
	if err := a.api.sendJSON(ctx, http.MethodPost, "/api/v1/applications?upsert=true", spec, &app); err != nil {
		return nil, fmt.Errorf("failed to upsert application: %w", err)
	}
	return &app, nil
}
