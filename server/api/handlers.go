// Package api implements the user-scoped REST handlers: tasks, chat,
// conversations and event history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoCodeAlone/todochat/chat"
	"github.com/GoCodeAlone/todochat/conversation"
	"github.com/GoCodeAlone/todochat/events"
	"github.com/GoCodeAlone/todochat/task"
)

// TaskService is the task API the handlers drive. *task.Service satisfies it.
type TaskService interface {
	Create(ctx context.Context, userID, title string, description *string) (*task.Task, error)
	Get(ctx context.Context, userID string, id int64) (*task.Task, error)
	List(ctx context.Context, userID string, filter task.Filter) ([]*task.Task, error)
	Update(ctx context.Context, userID string, id int64, p task.Patch) (*task.Task, error)
	Replace(ctx context.Context, userID string, id int64, title string, description *string, completed bool) (*task.Task, error)
	SetCompleted(ctx context.Context, userID string, id int64, completed bool) (*task.Task, error)
	Delete(ctx context.Context, userID string, id int64) (*task.Task, error)
}

// ChatService answers chat messages. *chat.Service satisfies it.
type ChatService interface {
	Handle(ctx context.Context, userID string, req chat.Request) (*chat.Response, error)
}

// ConversationStore reads stored conversations. *conversation.Store
// satisfies it.
type ConversationStore interface {
	Get(ctx context.Context, userID string, id int64) (*conversation.Conversation, error)
	List(ctx context.Context, userID string) ([]*conversation.Conversation, error)
	Messages(ctx context.Context, userID string, conversationID int64, limit int) ([]*conversation.Message, error)
}

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Tasks         TaskService
	Chat          ChatService
	Conversations ConversationStore
	Bus           events.Bus
	Logger        *slog.Logger
	Version       string
	Oracle        string    // oracle provider name, "" when disabled
	StartAt       time.Time // server start time
}

// RegisterRoutes registers all user-scoped API routes on the given mux.
// Every route is guarded by an ownership check on {user_id}.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/{user_id}/tasks", h.owned(h.listTasks))
	mux.HandleFunc("POST /api/{user_id}/tasks", h.owned(h.createTask))
	mux.HandleFunc("GET /api/{user_id}/tasks/{task_id}", h.owned(h.getTask))
	mux.HandleFunc("PUT /api/{user_id}/tasks/{task_id}", h.owned(h.replaceTask))
	mux.HandleFunc("PATCH /api/{user_id}/tasks/{task_id}", h.owned(h.patchTask))
	mux.HandleFunc("DELETE /api/{user_id}/tasks/{task_id}", h.owned(h.deleteTask))
	mux.HandleFunc("PATCH /api/{user_id}/tasks/{task_id}/complete", h.owned(h.completeTask))

	mux.HandleFunc("POST /api/{user_id}/chat", h.owned(h.chat))
	mux.HandleFunc("GET /api/{user_id}/conversations", h.owned(h.listConversations))
	mux.HandleFunc("GET /api/{user_id}/conversations/{conversation_id}/messages", h.owned(h.listMessages))

	mux.HandleFunc("GET /api/{user_id}/events", h.owned(h.listEvents))
}

// owned rejects requests whose {user_id} is not the authenticated user.
func (h *Handlers) owned(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("user_id") != UserIDFromContext(r.Context()) {
			writeError(w, http.StatusForbidden, "access denied")
			return
		}
		next(w, r)
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto an HTTP status.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrValidation), errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	default:
		h.logger().Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt parses a non-negative integer query parameter, returning def when
// it is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// --- Chat handlers ---

func (h *Handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	resp, err := h.Chat.Handle(r.Context(), r.PathValue("user_id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Conversation handlers ---

func (h *Handlers) listConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.Conversations.List(r.Context(), r.PathValue("user_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if convs == nil {
		convs = []*conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *Handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	id, ok := pathID(r, "conversation_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	if _, err := h.Conversations.Get(r.Context(), userID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	msgs, err := h.Conversations.Messages(r.Context(), userID, id, queryInt(r, "limit", 0))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*conversation.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// --- Event handlers ---

func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	if h.Bus == nil {
		writeJSON(w, http.StatusOK, []*events.Event{})
		return
	}
	evs, err := h.Bus.History(r.PathValue("user_id"), queryInt(r, "limit", 50))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if evs == nil {
		evs = []*events.Event{}
	}
	writeJSON(w, http.StatusOK, evs)
}

// --- Status ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	oracle := h.Oracle
	if oracle == "" {
		oracle = "disabled"
	}
	body := map[string]any{
		"status":  "ok",
		"version": h.Version,
		"oracle":  oracle,
	}
	if !h.StartAt.IsZero() {
		body["uptime_seconds"] = int64(time.Since(h.StartAt).Seconds())
	}
	writeJSON(w, http.StatusOK, body)
}

// StatusHandler returns the status handler function for external registration.
func (h *Handlers) StatusHandler() http.HandlerFunc {
	return h.status
}
