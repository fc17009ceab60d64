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

// Artifactory wraps the binary artifact repository's management API.
type Artifactory struct {
	api *httpAPI
}

// NewArtifactory creates an Artifactory client from collaborator
// configuration.
func NewArtifactory(cfg config.CollaboratorConfig, log *logger.Logger) *Artifactory {
	apiKey := cfg.Token
	return &Artifactory{
		api: newHTTPAPI("artifactory", cfg.URL, func(req *http.Request) {
			req.Header.Set("X-JFrog-Art-Api", apiKey)
		}, log),
	}
}

// Repository is an artifact repository record.
type Repository struct {
	Key         string `json:"key"`
	Type        string `json:"type,omitempty"`
	Rclass      string `json:"rclass,omitempty"`
	PackageType string `json:"packageType,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ListRepositories returns repository keys, optionally filtered by
// repository type (local, remote, virtual), sorted. Failures degrade to an
// empty list.
func (a *Artifactory) ListRepositories(ctx context.Context, repoType string) []string {
	path := "/api/repositories"
	if repoType != "" {
		path += "?type=" + url.QueryEscape(repoType)
	}
	var repos []Repository
	if err := a.api.getJSON(ctx, path, &repos); err != nil {
		a.api.warnListFailure("repositories", err)
		return []string{}
	}
	keys := make([]string, 0, len(repos))
	for _, repo := range repos {
		keys = append(keys, repo.Key)
	}
	sort.Strings(keys)
	return keys
}

// GetRepository reads one repository configuration; failures propagate.
func (a *Artifactory) GetRepository(ctx context.Context, key string) (*Repository, error) {
	var repo Repository
	path := "/api/repositories/" + url.PathEscape(key)
	if err := a.api.getJSON(ctx, path, &repo); err != nil {
		return nil, fmt.Errorf("failed to read repository %q: %w", key, err)
	}
	if repo.Key == "" {
		repo.Key = key
	}
	return &repo, nil
}

// UpsertRepository creates the repository when absent, otherwise returns the
// existing configuration unchanged (read-if-exists-else-create).
func (a *Artifactory) UpsertRepository(ctx context.Context, key, rclass, packageType, description string) (*Repository, error) {
	existing, err := a.GetRepository(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	body := Repository{
		Key:         key,
		Rclass:      rclass,
		PackageType: packageType,
		Description: description,
	}
	path := "/api/repositories/" + url.PathEscape(key)
	if err := a.api.sendJSON(ctx, http.MethodPut, path, body, nil); err != nil {
		return nil, fmt.Errorf("failed to create repository %q: %w", key, err)
	}
	return a.GetRepository(ctx, key)
}
