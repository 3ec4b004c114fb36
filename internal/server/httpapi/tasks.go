package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskvault/taskvault/internal/common"
	"github.com/taskvault/taskvault/internal/server/models"
)

type createTaskRequest struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

type patchTaskRequest struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"isCompleted"`
	Priority    *string `json:"priority"`
}

// parsePathID reads a positive numeric path segment; anything else is a
// client error, not a lookup miss.
func parsePathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// principal returns the verified identity; the gate guarantees presence, so
// a miss means a wiring bug and is worth a loud failure.
func principal(r *http.Request) int64 {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		panic("handler reached without authenticated principal")
	}
	return id
}

func (s *HTTPServer) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "title is required"})
		return
	}

	task, err := s.tasks.Create(r.Context(), userID, req.Title, req.Priority)
	if err != nil {
		s.logger.Error(r.Context(), "task create failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (s *HTTPServer) handleTaskList(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	tasks, err := s.tasks.List(r.Context(), userID)
	if err != nil {
		s.logger.Error(r.Context(), "task list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (s *HTTPServer) handleTaskShow(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}

	task, err := s.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (s *HTTPServer) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}

	var req patchTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "title must not be empty"})
		return
	}

	task, err := s.tasks.Update(r.Context(), userID, taskID, &models.TaskPatch{
		Title:       req.Title,
		IsCompleted: req.IsCompleted,
		Priority:    req.Priority,
	})
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (s *HTTPServer) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	taskID, ok := parsePathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "The task ID passed is not valid."})
		return
	}

	task, err := s.tasks.Delete(r.Context(), userID, taskID)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// writeTaskError maps a service error to the wire. Ownership violations
// arrive here already collapsed into ErrorNotFound by the compound-key
// repository, so "someone else's task" and "no such task" are one outcome.
func (s *HTTPServer) writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "That task was not found"})
		return
	}
	s.logger.Error(r.Context(), "task operation failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}
