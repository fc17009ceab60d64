package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
)

// maxCompletionValues caps the candidate list returned for one completion
// request.
const maxCompletionValues = 100

type completeParams struct {
	Ref struct {
		Type string `json:"type"`
		URI  string `json:"uri,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"ref"`
	Argument struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"argument"`
}

type completeRequest struct {
	Params completeParams `json:"params"`
}

// handleComplete answers a completion request from the session's bound
// template set. Unknown references and failing completion sources degrade to
// an empty candidate list — auto-completion is best-effort by contract.
func (b *Bound) handleComplete(ctx context.Context, id json.RawMessage, message json.RawMessage) json.RawMessage {
	var req completeRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return jsonrpcError(id, -32602, fmt.Sprintf("invalid completion params: %v", err))
	}

	values := b.completionValues(ctx, req.Params)
	if values == nil {
		values = []string{}
	}
	total := len(values)
	truncated := total > maxCompletionValues
	if truncated {
		values = values[:maxCompletionValues]
	}

	result := map[string]interface{}{
		"completion": map[string]interface{}{
			"values":  values,
			"total":   total,
			"hasMore": truncated,
		},
	}
	return jsonrpcResult(id, result)
}

func (b *Bound) completionValues(ctx context.Context, params completeParams) []string {
	if params.Ref.Type != "ref/resource" {
		return []string{}
	}

	for _, bt := range b.templates {
		if bt.def.URITemplate != params.Ref.URI {
			continue
		}
		variable, ok := bt.def.Variable(params.Argument.Name)
		if !ok || variable.Complete == nil {
			return []string{}
		}
		values, err := variable.Complete(ctx, params.Argument.Value)
		if err != nil {
			b.logger.Warn("completion source failed",
				"template", bt.def.Name(),
				"variable", params.Argument.Name,
				"error", err,
			)
			return []string{}
		}
		return values
	}
	return []string{}
}

func jsonrpcResult(id json.RawMessage, result interface{}) json.RawMessage {
	if id == nil {
		id = json.RawMessage("null")
	}
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
	if err != nil {
		return jsonrpcError(id, -32603, "failed to encode result")
	}
	return payload
}

func jsonrpcError(id json.RawMessage, code int, message string) json.RawMessage {
	if id == nil {
		id = json.RawMessage("null")
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
	return payload
}
