package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoCodeAlone/todochat/chat"
	"github.com/GoCodeAlone/todochat/config"
	"github.com/GoCodeAlone/todochat/conversation"
	"github.com/GoCodeAlone/todochat/events"
	"github.com/GoCodeAlone/todochat/interpreter"
	"github.com/GoCodeAlone/todochat/storage"
	"github.com/GoCodeAlone/todochat/task"
	"github.com/GoCodeAlone/todochat/user"
)

const testSecret = "test-secret-key-1234567890"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		Server: config.ServerConfig{Addr: ":0", AllowedOrigins: []string{"http://localhost:3000"}},
		Auth:   config.AuthConfig{JWTSecret: testSecret},
	}
	registry := prometheus.NewRegistry()
	bus := events.NewInMemoryBus(registry)
	tasks := task.NewService(task.NewSQLiteStore(db), bus, nil)
	convs := conversation.NewStore(db)

	s := New(cfg, "test", nil)
	s.SetUserStore(user.NewStore(db))
	s.SetTaskService(tasks)
	s.SetConversations(convs)
	s.SetChat(chat.NewService(convs, interpreter.New(tasks, interpreter.WithMetrics(registry)), nil))
	s.SetBus(bus)
	s.SetRegistry(registry)
	return s
}

// do sends a request through the full handler chain.
func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// signup registers email and returns its token and user id.
func signup(t *testing.T, s *Server, email string) (token, userID string) {
	t.Helper()
	rr := do(t, s, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[tokenResponse](t, rr)
	return resp.AccessToken, resp.User.ID
}

func configWithoutSecret() config.Config {
	return config.Config{Server: config.ServerConfig{Addr: ":0"}}
}
