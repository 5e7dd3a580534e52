package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GoCodeAlone/todochat/provider"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), "", "", "")
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Errorf("New() err = %v, want ErrUnavailable", err)
	}
}

func TestProvider_Chat(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Add task: buy milk"}]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5}
		}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "test-key", "gemini-test", srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q, want %q", p.Name(), "gemini")
	}

	resp, err := p.Chat(context.Background(), []provider.Message{
		{Role: provider.RoleSystem, Content: "You translate todo requests."},
		{Role: provider.RoleUser, Content: "I need milk"},
	}, provider.Options{MaxTokens: 500, Temperature: 0.1})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Add task: buy milk" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if !strings.Contains(gotPath, "gemini-test:generateContent") {
		t.Errorf("path = %q, want generateContent for gemini-test", gotPath)
	}
	if _, ok := gotBody["systemInstruction"]; !ok {
		t.Error("request missing systemInstruction")
	}
}

func TestProvider_Chat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": 500, "message": "boom", "status": "INTERNAL"}}`))
	}))
	defer srv.Close()

	p, err := New(context.Background(), "test-key", "gemini-test", srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Chat(context.Background(), []provider.Message{{Role: provider.RoleUser, Content: "hi"}}, provider.Options{MaxTokens: 10}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
