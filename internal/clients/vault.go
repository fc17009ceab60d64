package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"

	"mcp-gateway/internal/config"
	"mcp-gateway/internal/logger"
)

// Vault wraps the secrets manager's KV v2 and identity HTTP APIs.
type Vault struct {
	api *httpAPI
}

// NewVault creates a Vault client from collaborator configuration.
func NewVault(cfg config.CollaboratorConfig, log *logger.Logger) *Vault {
	token := cfg.Token
	return &Vault{
		api: newHTTPAPI("vault", cfg.URL, func(req *http.Request) {
			req.Header.Set("X-Vault-Token", token)
		}, log),
	}
}

type vaultKeysResponse struct {
	Data struct {
		Keys []string `json:"keys"`
	} `json:"data"`
}

type vaultSecretResponse struct {
	Data struct {
		Data     map[string]interface{} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

// Secret is a read KV v2 secret with its version metadata.
type Secret struct {
	Path     string                 `json:"path"`
	Data     map[string]interface{} `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

// GroupAlias is a created identity group alias.
type GroupAlias struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CanonicalID   string `json:"canonical_id"`
	MountAccessor string `json:"mount_accessor"`
}

// ListSecrets returns the secret keys under a KV v2 mount, sorted. Failures
// degrade to an empty list.
func (v *Vault) ListSecrets(ctx context.Context, mount string) []string {
	var resp vaultKeysResponse
	path := fmt.Sprintf("/v1/%s/metadata?list=true", url.PathEscape(mount))
	if err := v.api.getJSON(ctx, path, &resp); err != nil {
		v.api.warnListFailure("secrets", err)
		return []string{}
	}
	keys := append([]string(nil), resp.Data.Keys...)
	sort.Strings(keys)
	return keys
}

// ListPolicies returns the ACL policy names, sorted. Failures degrade to an
// empty list.
func (v *Vault) ListPolicies(ctx context.Context) []string {
	var resp vaultKeysResponse
	if err := v.api.getJSON(ctx, "/v1/sys/policies/acl?list=true", &resp); err != nil {
		v.api.warnListFailure("policies", err)
		return []string{}
	}
	names := append([]string(nil), resp.Data.Keys...)
	sort.Strings(names)
	return names
}

// ReadSecret reads one KV v2 secret. Not-found and permission failures
// propagate as descriptive errors.
func (v *Vault) ReadSecret(ctx context.Context, mount, path string) (*Secret, error) {
	var resp vaultSecretResponse
	requestPath := fmt.Sprintf("/v1/%s/data/%s", url.PathEscape(mount), path)
	if err := v.api.getJSON(ctx, requestPath, &resp); err != nil {
		return nil, fmt.Errorf("failed to read secret %s/%s: %w", mount, path, err)
	}
	return &Secret{
		Path:     path,
		Data:     resp.Data.Data,
		Metadata: resp.Data.Metadata,
	}, nil
}

// UpsertSecret writes a KV v2 secret, creating or updating it.
func (v *Vault) UpsertSecret(ctx context.Context, mount, path string, data map[string]interface{}) (*Secret, error) {
	body := map[string]interface{}{"data": data}
	var resp vaultSecretResponse
	requestPath := fmt.Sprintf("/v1/%s/data/%s", url.PathEscape(mount), path)
	if err := v.api.sendJSON(ctx, http.MethodPost, requestPath, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to write secret %s/%s: %w", mount, path, err)
	}
	return &Secret{
		Path:     path,
		Data:     data,
		Metadata: resp.Data.Metadata,
	}, nil
}

type vaultGroupAliasCreateResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type vaultGroupAliasReadResponse struct {
	Data GroupAlias `json:"data"`
}

// CreateGroupAlias creates an identity group alias and waits for it to
// become readable. Alias propagation is eventually consistent, so the
// post-create read polls with exponential backoff, bounded by a retry cap,
// instead of sleeping a fixed interval.
func (v *Vault) CreateGroupAlias(ctx context.Context, name, canonicalID, mountAccessor string) (*GroupAlias, error) {
	body := map[string]interface{}{
		"name":           name,
		"canonical_id":   canonicalID,
		"mount_accessor": mountAccessor,
	}
	var created vaultGroupAliasCreateResponse
	if err := v.api.sendJSON(ctx, http.MethodPost, "/v1/identity/group-alias", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create group alias %q: %w", name, err)
	}
	if created.Data.ID == "" {
		return nil, fmt.Errorf("group alias creation for %q returned no id", name)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 250 * time.Millisecond
	expBackoff.MaxInterval = 2 * time.Second

	alias, err := backoff.Retry(ctx, func() (*GroupAlias, error) {
		var read vaultGroupAliasReadResponse
		readPath := fmt.Sprintf("/v1/identity/group-alias/id/%s", url.PathEscape(created.Data.ID))
		if err := v.api.getJSON(ctx, readPath, &read); err != nil {
			return nil, err
		}
		if read.Data.ID == "" {
			return nil, fmt.Errorf("group alias %s not yet visible", created.Data.ID)
		}
		return &read.Data, nil
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(8),
	)
	if err != nil {
		return nil, fmt.Errorf("group alias %q created but never became readable: %w", name, err)
	}
	return alias, nil
}
