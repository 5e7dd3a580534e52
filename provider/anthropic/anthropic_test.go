package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoCodeAlone/todochat/provider"
)

func TestProvider_BuildRequest_LiftsSystem(t *testing.T) {
	p := New("key", "", "")
	req := p.buildRequest([]provider.Message{
		{Role: provider.RoleSystem, Content: "sys"},
		{Role: provider.RoleUser, Content: "hi"},
	}, provider.Options{})

	if req.System != "sys" {
		t.Errorf("System = %q, want %q", req.System, "sys")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("Messages = %+v", req.Messages)
	}
	if req.MaxTokens != defaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, defaultMaxTokens)
	}
}

func TestProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %q, want /messages", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "key" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("headers = %v", r.Header)
		}
		_ = json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: "Complete task #3"}},
			Usage:   anthropicUsage{InputTokens: 20, OutputTokens: 4},
		})
	}))
	defer srv.Close()

	p := New("key", "", srv.URL)
	resp, err := p.Chat(context.Background(), []provider.Message{{Role: provider.RoleUser, Content: "I finished number three"}}, provider.Options{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Complete task #3" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.OutputTokens != 4 {
		t.Errorf("OutputTokens = %d, want 4", resp.Usage.OutputTokens)
	}
}

func TestProvider_Chat_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := New("key", "", srv.URL)
	if _, err := p.Chat(context.Background(), []provider.Message{{Role: provider.RoleUser, Content: "hi"}}, provider.Options{}); err == nil {
		t.Fatal("expected error")
	}
}
