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

// Entra wraps the directory service's Graph API for group management.
type Entra struct {
	api *httpAPI
}

// NewEntra creates a directory client from collaborator configuration.
func NewEntra(cfg config.EntraConfig, log *logger.Logger) *Entra {
	token := cfg.Token
	return &Entra{
		api: newHTTPAPI("entra", cfg.URL, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}, log),
	}
}

// Group is a directory security group.
type Group struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	Description     string `json:"description,omitempty"`
	MailNickname    string `json:"mailNickname,omitempty"`
	SecurityEnabled bool   `json:"securityEnabled"`
}

// Member is a directory group member.
type Member struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
}

type groupList struct {
	Value []Group `json:"value"`
}

type memberList struct {
	Value []Member `json:"value"`
}

// ListGroups returns group display names, optionally prefix-filtered,
// sorted. Failures degrade to an empty list.
func (e *Entra) ListGroups(ctx context.Context, prefix string) []string {
	path := "/groups?$select=id,displayName"
	if prefix != "" {
		path += "&$filter=" + url.QueryEscape(fmt.Sprintf("startswith(displayName,'%s')", prefix))
	}
	var resp groupList
	if err := e.api.getJSON(ctx, path, &resp); err != nil {
		e.api.warnListFailure("groups", err)
		return []string{}
	}
	names := make([]string, 0, len(resp.Value))
	for _, group := range resp.Value {
		names = append(names, group.DisplayName)
	}
	sort.Strings(names)
	return names
}

// ListGroupIDs returns group object ids, optionally filtered by display
// name prefix, sorted. Graph addresses groups by object id, so anything that
// builds a group lookup key must complete from this list, not from display
// names. Failures degrade to an empty list.
func (e *Entra) ListGroupIDs(ctx context.Context, prefix string) []string {
	path := "/groups?$select=id,displayName"
	if prefix != "" {
		path += "&$filter=" + url.QueryEscape(fmt.Sprintf("startswith(displayName,'%s')", prefix))
	}
	var resp groupList
	if err := e.api.getJSON(ctx, path, &resp); err != nil {
		e.api.warnListFailure("groups", err)
		return []string{}
	}
	ids := make([]string, 0, len(resp.Value))
	for _, group := range resp.Value {
		ids = append(ids, group.ID)
	}
	sort.Strings(ids)
	return ids
}

// GetGroup reads one group by object id; failures propagate.
func (e *Entra) GetGroup(ctx context.Context, id string) (*Group, error) {
	var group Group
	path := "/groups/" + url.PathEscape(id)
	if err := e.api.getJSON(ctx, path, &group); err != nil {
		return nil, fmt.Errorf("failed to read group %q: %w", id, err)
	}
	return &group, nil
}

// CreateGroup creates a security group.
func (e *Entra) CreateGroup(ctx context.Context, displayName, description, mailNickname string) (*Group, error) {
	body := map[string]interface{}{
		"displayName":     displayName,
		"description":     description,
		"mailNickname":    mailNickname,
		"securityEnabled": true,
		"mailEnabled":     false,
	}
	var group Group
	if err := e.api.sendJSON(ctx, http.MethodPost, "/groups", body, &group); err != nil {
		return nil, fmt.Errorf("failed to create group %q: %w", displayName, err)
	}
	return &group, nil
}

// ListGroupMembers reads the members of a group; failures propagate because
// membership feeds access decisions, not auto-completion.
func (e *Entra) ListGroupMembers(ctx context.Context, id string) ([]Member, error) {
	var resp memberList
	path := "/groups/" + url.PathEscape(id) + "/members?$select=id,displayName,userPrincipalName"
	if err := e.api.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list members of group %q: %w", id, err)
	}
	return resp.Value, nil
}
