package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoCodeAlone/todochat/provider"
)

func TestProvider_BuildRequest(t *testing.T) {
	p := New("key", "", "")
	req := p.buildRequest([]provider.Message{
		{Role: provider.RoleSystem, Content: "sys"},
		{Role: provider.RoleUser, Content: "hi"},
	}, provider.Options{MaxTokens: 500, Temperature: 0.1})

	if req.Model != defaultModel {
		t.Errorf("Model = %q, want %q", req.Model, defaultModel)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("Messages = %+v", req.Messages)
	}
	if req.MaxTokens != 500 {
		t.Errorf("MaxTokens = %d, want 500", req.MaxTokens)
	}
}

func TestProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Role: "assistant", Content: "List my tasks"}}},
			Usage:   openAIUsage{PromptTokens: 9, CompletionTokens: 3},
		})
	}))
	defer srv.Close()

	p := New("key", "gpt-test", srv.URL)
	resp, err := p.Chat(context.Background(), []provider.Message{{Role: provider.RoleUser, Content: "what's on my plate"}}, provider.Options{MaxTokens: 50})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "List my tasks" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 9 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestProvider_Chat_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := New("key", "", srv.URL)
	if _, err := p.Chat(context.Background(), nil, provider.Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestProvider_Chat_NoKey(t *testing.T) {
	p := New("", "", "")
	_, err := p.Chat(context.Background(), nil, provider.Options{})
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
