package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/masadev/pscheduler/internal/api/shared"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/platform/logger"
	"github.com/masadev/pscheduler/internal/redact"
	"github.com/masadev/pscheduler/internal/service"
)

// TaskHandler handles task-related HTTP requests. All operations are scoped
// to the authenticated user taken from the request context.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, service.TaskCreation{
		Title:             req.Title,
		Description:       req.Description,
		Deadline:          req.Deadline,
		Priority:          domain.TaskPriority(req.Priority),
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: domain.RecurrencePattern(req.RecurrencePattern),
		Tags:              req.Tags,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created",
		slog.String("user_id", userID.String()),
		slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task, getUsernameFromContext(r), time.Now().UTC()))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := h.requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, getUsernameFromContext(r), time.Now().UTC()))
}

// ListTasks handles GET /tasks requests.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), time.Now().UTC()))
}

// ListTasksByStatus handles GET /tasks/status/{status} requests.
func (h *TaskHandler) ListTasksByStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	status := domain.TaskStatus(chi.URLParam(r, "status"))

	tasks, err := h.taskService.ListTasksByStatus(r.Context(), userID, status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), time.Now().UTC()))
}

// ListTasksByPriority handles GET /tasks/priority/{priority} requests.
func (h *TaskHandler) ListTasksByPriority(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	priority := domain.TaskPriority(chi.URLParam(r, "priority"))

	tasks, err := h.taskService.ListTasksByPriority(r.Context(), userID, priority)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), time.Now().UTC()))
}

// ListTasksByDateRange handles GET /tasks/range?start=...&end=... requests.
// Both bounds are required RFC 3339 timestamps and the range is inclusive.
func (h *TaskHandler) ListTasksByDateRange(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	start, err := parseTimeParam(r, "start")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid start: must be RFC 3339")
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid end: must be RFC 3339")
		return
	}

	tasks, err := h.taskService.ListTasksByDateRange(r.Context(), userID, start, end)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), time.Now().UTC()))
}

// ListOverdueTasks handles GET /tasks/overdue requests. An optional as_of
// query parameter (RFC 3339) overrides the reference time; it defaults to
// the time of the request.
func (h *TaskHandler) ListOverdueTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	referenceTime := time.Now().UTC()
	if r.URL.Query().Get("as_of") != "" {
		var err error
		referenceTime, err = parseTimeParam(r, "as_of")
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid as_of: must be RFC 3339")
			return
		}
	}

	tasks, err := h.taskService.ListOverdueTasks(r.Context(), userID, referenceTime)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list overdue tasks")
		return
	}

	// Project against the same reference time the query used, so every
	// task in an overdue listing reports is_overdue=true.
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), referenceTime))
}

// UpdateTask handles PUT /tasks/{id} requests. Absent body fields are left
// unchanged.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := h.requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		IsRecurring: req.IsRecurring,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		update.Priority = &priority
	}
	if req.RecurrencePattern != nil {
		pattern := domain.RecurrencePattern(*req.RecurrencePattern)
		update.RecurrencePattern = &pattern
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	log.Debug("task updated",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, getUsernameFromContext(r), time.Now().UTC()))
}

// CompleteTask handles POST /tasks/{id}/complete requests. Completing an
// already-completed task returns 200 with the unchanged task.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := h.requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.CompleteTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete task")
		return
	}

	log.Debug("task completed",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task, getUsernameFromContext(r), time.Now().UTC()))
}

// CompleteTasks handles POST /tasks/complete requests. The batch succeeds or
// fails as a whole: one unknown ID rejects the entire request.
func (h *TaskHandler) CompleteTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req BulkCompleteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	tasks, err := h.taskService.CompleteTasks(r.Context(), userID, req.TaskIDs)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete tasks")
		return
	}

	log.Debug("tasks completed",
		slog.String("user_id", userID.String()),
		slog.Int("task_count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks, getUsernameFromContext(r), time.Now().UTC()))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := h.requireUserAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	log.Debug("task deleted",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// CountTasksByStatus handles GET /tasks/count/{status} requests.
func (h *TaskHandler) CountTasksByStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	status := domain.TaskStatus(chi.URLParam(r, "status"))

	count, err := h.taskService.CountTasksByStatus(r.Context(), userID, status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to count tasks")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskCountResponse{
		Status: string(status),
		Count:  count,
	})
}

// requireUserAndTaskID extracts the authenticated user ID and the {id} path
// parameter, writing an error response and returning false if either fails.
func (h *TaskHandler) requireUserAndTaskID(
	w http.ResponseWriter,
	r *http.Request,
) (userID, taskID uuid.UUID, ok bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	uid, found := getUserIDFromContext(r)
	if !found {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	tid, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid task ID", slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err, "")
		return
	}

	return uid, tid, true
}

// parseTimeParam parses a required RFC 3339 query parameter.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	return time.Parse(time.RFC3339, r.URL.Query().Get(name))
}
