package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GoCodeAlone/todochat/task"
)

// taskRequest is the body of POST and PUT on a task.
type taskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

type completeTaskRequest struct {
	Completed *bool `json:"completed"`
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := task.Filter{
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if c := q.Get("completed"); c != "" {
		b, err := strconv.ParseBool(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed must be true or false")
			return
		}
		filter.Completed = &b
	}

	tasks, err := h.Tasks.List(r.Context(), r.PathValue("user_id"), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	userID := r.PathValue("user_id")
	t, err := h.Tasks.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if req.Completed {
		if t, err = h.Tasks.SetCompleted(r.Context(), userID, t.ID, true); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "task_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.Tasks.Get(r.Context(), r.PathValue("user_id"), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) replaceTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "task_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.Replace(r.Context(), r.PathValue("user_id"), id, req.Title, req.Description, req.Completed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) patchTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "task_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var p task.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t, err := h.Tasks.Update(r.Context(), r.PathValue("user_id"), id, p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) completeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "task_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, "completed is required")
		return
	}
	t, err := h.Tasks.SetCompleted(r.Context(), r.PathValue("user_id"), id, *req.Completed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "task_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if _, err := h.Tasks.Delete(r.Context(), r.PathValue("user_id"), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
