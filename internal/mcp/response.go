package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Response is the envelope every capability handler returns. A single shape
// replaces the per-handler ad hoc JSON bodies: a human-readable message, an
// optional structured payload, related links, and metadata such as
// troubleshooting hints on failure.
type Response struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Data     interface{}       `json:"data,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Metadata *Metadata         `json:"metadata,omitempty"`
}

// Metadata carries auxiliary response information.
type Metadata struct {
	Troubleshooting []string `json:"troubleshooting,omitempty"`
}

// Success creates a successful response with the given message.
func Success(message string) *Response {
	return &Response{Success: true, Message: message}
}

// Successf creates a successful response with a formatted message.
func Successf(format string, args ...interface{}) *Response {
	return Success(fmt.Sprintf(format, args...))
}

// Error creates a failed response. Troubleshooting hints, when given, are
// surfaced under metadata.troubleshooting.
func Error(message string, hints ...string) *Response {
	resp := &Response{Success: false, Message: message}
	if len(hints) > 0 {
		resp.Metadata = &Metadata{Troubleshooting: hints}
	}
	return resp
}

// Errorf creates a failed response with a formatted message.
func Errorf(format string, args ...interface{}) *Response {
	return Error(fmt.Sprintf(format, args...))
}

// WithData attaches a structured payload to the response.
func (r *Response) WithData(data interface{}) *Response {
	r.Data = data
	return r
}

// WithLink attaches a named link to the response.
func (r *Response) WithLink(name, url string) *Response {
	if r.Links == nil {
		r.Links = make(map[string]string)
	}
	r.Links[name] = url
	return r
}

// WithHints appends troubleshooting hints to the response metadata.
func (r *Response) WithHints(hints ...string) *Response {
	if r.Metadata == nil {
		r.Metadata = &Metadata{}
	}
	r.Metadata.Troubleshooting = append(r.Metadata.Troubleshooting, hints...)
	return r
}

// ToolResult converts the envelope into a protocol tool result. Marshalling
// failures degrade to a plain-text error result rather than propagating.
func (r *Response) ToolResult() *mcp.CallToolResult {
	body, err := json.Marshal(r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err))
	}
	if !r.Success {
		result := mcp.NewToolResultText(string(body))
		result.IsError = true
		return result
	}
	return mcp.NewToolResultText(string(body))
}

// ResourceContents converts the envelope into protocol resource contents for
// the given URI.
func (r *Response) ResourceContents(uri string) []mcp.ResourceContents {
	body, err := json.Marshal(r)
	if err != nil {
		body = []byte(fmt.Sprintf(`{"success":false,"message":"failed to encode response: %v"}`, err))
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}
}
