package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestSuccessEnvelope(t *testing.T) {
	resp := Successf("%d items found", 3).
		WithData([]string{"a", "b", "c"}).
		WithLink("console", "http://example.com")

	if !resp.Success {
		t.Error("expected success discriminant")
	}
	if resp.Message != "3 items found" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Links["console"] != "http://example.com" {
		t.Errorf("unexpected links %v", resp.Links)
	}

	result := resp.ToolResult()
	if result.IsError {
		t.Error("successful envelope must not mark the tool result as error")
	}
}

func TestErrorEnvelopeCarriesHints(t *testing.T) {
	resp := Error("upstream unreachable", "Check the network").
		WithHints("Check the credential")

	if resp.Success {
		t.Error("expected failure discriminant")
	}
	if resp.Metadata == nil || len(resp.Metadata.Troubleshooting) != 2 {
		t.Fatalf("expected 2 troubleshooting hints, got %+v", resp.Metadata)
	}

	result := resp.ToolResult()
	if !result.IsError {
		t.Error("failed envelope must mark the tool result as error")
	}

	body, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("envelope must marshal: %v", err)
	}
	if !strings.Contains(string(body), "troubleshooting") {
		t.Errorf("expected troubleshooting in payload, got %s", body)
	}
}

func TestResourceContents(t *testing.T) {
	contents := Success("one secret").WithData(map[string]string{"k": "v"}).
		ResourceContents("vault://secrets/kv/app")

	if len(contents) != 1 {
		t.Fatalf("expected a single contents entry, got %d", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected text contents, got %T", contents[0])
	}
	if text.URI != "vault://secrets/kv/app" {
		t.Errorf("unexpected URI %q", text.URI)
	}
	if text.MIMEType != "application/json" {
		t.Errorf("unexpected MIME type %q", text.MIMEType)
	}

	var decoded Response
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		t.Fatalf("contents must be valid JSON: %v", err)
	}
	if !decoded.Success || decoded.Message != "one secret" {
		t.Errorf("unexpected decoded envelope %+v", decoded)
	}
}

func TestRequestContextRoundTrip(t *testing.T) {
	rc := &RequestContext{SessionID: "s-1", Sampler: UnavailableSampler()}
	ctx := WithRequestContext(context.Background(), rc)

	got, ok := RequestContextFrom(ctx)
	if !ok || got.SessionID != "s-1" {
		t.Fatalf("expected request context recovered, got %v ok=%v", got, ok)
	}

	if _, ok := RequestContextFrom(context.Background()); ok {
		t.Error("expected no request context on a fresh context")
	}

	if _, err := rc.Sampler.CreateMessage(ctx, "prompt"); err != ErrSamplingUnavailable {
		t.Errorf("expected ErrSamplingUnavailable, got %v", err)
	}
}
