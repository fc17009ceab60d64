package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

// Kubernetes wraps the cluster API for read-only workload discovery.
type Kubernetes struct {
	api *httpAPI
}

// kindPaths maps the supported resource kinds to their API paths, relative
// to a namespace.
var kindPaths = map[string]string{
	"pods":        "/api/v1/namespaces/%s/pods",
	"services":    "/api/v1/namespaces/%s/services",
	"configmaps":  "/api/v1/namespaces/%s/configmaps",
	"secrets":     "/api/v1/namespaces/%s/secrets",
	"deployments": "/apis/apps/v1/namespaces/%s/deployments",
}

// SupportedKinds returns the resource kinds the gateway can discover,
// sorted.
func SupportedKinds() []string {
	kinds := make([]string, 0, len(kindPaths))
	for kind := range kindPaths {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// NewKubernetes creates a cluster client. The token comes from the
// configured file (typically a mounted service account token) or directly
// from configuration.
func NewKubernetes(cfg config.KubernetesConfig, log *logger.Logger) (*Kubernetes, error) {
	token := cfg.Token
	if token == "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read kubernetes token file %s: %w", cfg.TokenFile, err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return nil, fmt.Errorf("kubernetes collaborator has no credential")
	}

	return &Kubernetes{
		api: newHTTPAPI("kubernetes", cfg.APIServer, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}, log),
	}, nil
}

type objectList struct {
	Items []struct {
		Metadata struct {
			Name      string `json:"name"`
			Namespace string `json:"namespace,omitempty"`
		} `json:"metadata"`
	} `json:"items"`
}

// ListNamespaces returns namespace names, sorted. Failures degrade to an
// empty list.
func (k *Kubernetes) ListNamespaces(ctx context.Context) []string {
	var resp objectList
	if err := k.api.getJSON(ctx, "/api/v1/namespaces", &resp); err != nil {
		k.api.warnListFailure("namespaces", err)
		return []string{}
	}
	names := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		names = append(names, item.Metadata.Name)
	}
	sort.Strings(names)
	return names
}

// ListResources returns the names of resources of one kind in a namespace,
// sorted. Unknown kinds and upstream failures degrade to an empty list.
func (k *Kubernetes) ListResources(ctx context.Context, namespace, kind string) []string {
	pathTemplate, ok := kindPaths[kind]
	if !ok {
		k.api.warnListFailure(kind, fmt.Errorf("unsupported resource kind %q", kind))
		return []string{}
	}

	var resp objectList
	path := fmt.Sprintf(pathTemplate, url.PathEscape(namespace))
	if err := k.api.getJSON(ctx, path, &resp); err != nil {
		k.api.warnListFailure(kind, err)
		return []string{}
	}
	names := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		names = append(names, item.Metadata.Name)
	}
	sort.Strings(names)
	return names
}

// GetResource reads one object as raw structured data; failures propagate.
func (k *Kubernetes) GetResource(ctx context.Context, namespace, kind, name string) (map[string]interface{}, error) {
	pathTemplate, ok := kindPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}

	var obj map[string]interface{}
	path := fmt.Sprintf(pathTemplate, url.PathEscape(namespace)) + "/" + url.PathEscape(name)
	if err := k.api.getJSON(ctx, path, &obj); err != nil {
		return nil, fmt.Errorf("failed to read %s %s/%s: %w", kind, namespace, name, err)
	}
	return obj, nil
}
