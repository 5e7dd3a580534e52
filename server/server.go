// Package server implements the todochat HTTP server: auth, the REST API,
// metrics and the SSE event stream.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoCodeAlone/todochat/config"
	"github.com/GoCodeAlone/todochat/events"
	"github.com/GoCodeAlone/todochat/server/api"
	"github.com/GoCodeAlone/todochat/server/ws"
	"github.com/GoCodeAlone/todochat/user"
)

// UserStore is the account store behind signup, login and session lookup.
// *user.Store satisfies it.
type UserStore interface {
	Create(ctx context.Context, email, name, password string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
}

// Server is the todochat HTTP server.
type Server struct {
	cfg    config.Config
	mux    *http.ServeMux
	logger *slog.Logger

	srvMu   sync.Mutex
	httpSrv *http.Server

	users         UserStore
	tasks         api.TaskService
	chat          api.ChatService
	conversations api.ConversationStore
	bus           events.Bus
	registry      *prometheus.Registry
	oracle        string
	handlers      *api.Handlers
	hub           *ws.Hub

	routesOnce sync.Once

	// JWT secret caching
	secretOnce      sync.Once
	generatedSecret string

	startTime time.Time
	version   string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    logger,
		startTime: time.Now(),
		version:   ver,
	}
}

// SetUserStore attaches the account store.
func (s *Server) SetUserStore(users UserStore) { s.users = users }

// SetTaskService attaches the task service.
func (s *Server) SetTaskService(tasks api.TaskService) { s.tasks = tasks }

// SetChat attaches the chat orchestrator.
func (s *Server) SetChat(c api.ChatService) { s.chat = c }

// SetConversations attaches the conversation store.
func (s *Server) SetConversations(c api.ConversationStore) { s.conversations = c }

// SetBus attaches the event bus feeding the SSE stream.
func (s *Server) SetBus(bus events.Bus) { s.bus = bus }

// SetRegistry exposes registry on /metrics.
func (s *Server) SetRegistry(registry *prometheus.Registry) { s.registry = registry }

// SetOracleName records the active oracle provider for /api/status.
func (s *Server) SetOracleName(name string) { s.oracle = name }

// Handler returns the fully wrapped HTTP handler. Routes are registered on
// first use, so every setter must be called before.
func (s *Server) Handler() http.Handler {
	s.routesOnce.Do(s.registerRoutes)
	return requestID(s.accessLog(s.cors(s.mux)))
}

// Start registers routes and begins listening.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8000"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.srvMu.Lock()
	s.httpSrv = srv
	s.srvMu.Unlock()

	s.logger.Info("server listening", slog.String("addr", addr))
	return srv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.httpSrv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	h := &api.Handlers{
		Tasks:         s.tasks,
		Chat:          s.chat,
		Conversations: s.conversations,
		Bus:           s.bus,
		Logger:        s.logger,
		Version:       s.version,
		Oracle:        s.oracle,
		StartAt:       s.startTime,
	}
	s.handlers = h
	s.hub = ws.NewHub(s.bus, s.logger)

	// Public routes (no auth required)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", h.StatusHandler())
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	if s.registry != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// SSE: EventSource cannot set headers, so the token comes in the query
	s.mux.HandleFunc("GET /events", s.handleSSE)

	// Protected API
	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)
	apiMux.HandleFunc("GET /api/auth/me", s.handleMe)
	apiMux.HandleFunc("GET /api/auth/get-session", s.handleMe)

	s.mux.Handle("/api/", s.authMiddleware(apiMux))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleSSE streams the caller's task events. The token travels in the query
// string since EventSource can't set headers.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	token := bearerOrQuery(r)
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "token required")
		return
	}
	claims, err := verifyToken(s.jwtSecret(), token)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	s.hub.ServeSSE(w, r, claims.Subject)
}
