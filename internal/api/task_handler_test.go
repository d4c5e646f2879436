package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masadev/pscheduler/internal/api/shared"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/service"
)

// stubTaskService implements service.TaskService with function fields so each
// test can script exactly the behavior it needs.
type stubTaskService struct {
	createFn       func(ctx context.Context, userID uuid.UUID, params service.TaskCreation) (*domain.Task, error)
	getFn          func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	listFn         func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	listStatusFn   func(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)
	listPriorityFn func(ctx context.Context, userID uuid.UUID, priority domain.TaskPriority) ([]*domain.Task, error)
	listRangeFn    func(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*domain.Task, error)
	listOverdueFn  func(ctx context.Context, userID uuid.UUID, referenceTime time.Time) ([]*domain.Task, error)
	updateFn       func(ctx context.Context, userID, taskID uuid.UUID, update service.TaskUpdate) (*domain.Task, error)
	completeFn     func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	completeAllFn  func(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) ([]*domain.Task, error)
	deleteFn       func(ctx context.Context, userID, taskID uuid.UUID) error
	countFn        func(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int64, error)
}

func (s *stubTaskService) CreateTask(
	ctx context.Context,
	userID uuid.UUID,
	params service.TaskCreation,
) (*domain.Task, error) {
	return s.createFn(ctx, userID, params)
}

func (s *stubTaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return s.getFn(ctx, userID, taskID)
}

func (s *stubTaskService) ListTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.listFn(ctx, userID)
}

func (s *stubTaskService) ListTasksByStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	return s.listStatusFn(ctx, userID, status)
}

func (s *stubTaskService) ListTasksByPriority(
	ctx context.Context,
	userID uuid.UUID,
	priority domain.TaskPriority,
) ([]*domain.Task, error) {
	return s.listPriorityFn(ctx, userID, priority)
}

func (s *stubTaskService) ListTasksByDateRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) ([]*domain.Task, error) {
	return s.listRangeFn(ctx, userID, start, end)
}

func (s *stubTaskService) ListOverdueTasks(
	ctx context.Context,
	userID uuid.UUID,
	referenceTime time.Time,
) ([]*domain.Task, error) {
	return s.listOverdueFn(ctx, userID, referenceTime)
}

func (s *stubTaskService) UpdateTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update service.TaskUpdate,
) (*domain.Task, error) {
	return s.updateFn(ctx, userID, taskID, update)
}

func (s *stubTaskService) CompleteTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
) (*domain.Task, error) {
	return s.completeFn(ctx, userID, taskID)
}

func (s *stubTaskService) CompleteTasks(
	ctx context.Context,
	userID uuid.UUID,
	taskIDs []uuid.UUID,
) ([]*domain.Task, error) {
	return s.completeAllFn(ctx, userID, taskIDs)
}

func (s *stubTaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	return s.deleteFn(ctx, userID, taskID)
}

func (s *stubTaskService) CountTasksByStatus(
	ctx context.Context,
	userID uuid.UUID,
	status domain.TaskStatus,
) (int64, error) {
	return s.countFn(ctx, userID, status)
}

// newTaskRouter mounts the handler under the same routes the server uses,
// with a middleware that injects the given user ID as the authenticated user.
// The authenticated username is always "alice", mirroring what the auth
// middleware stores alongside the user ID.
func newTaskRouter(svc service.TaskService, userID uuid.UUID) http.Handler {
	handler := NewTaskHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			ctx = context.WithValue(ctx, shared.UsernameContextKey, "alice")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Post("/tasks", handler.CreateTask)
	r.Get("/tasks", handler.ListTasks)
	r.Get("/tasks/overdue", handler.ListOverdueTasks)
	r.Get("/tasks/range", handler.ListTasksByDateRange)
	r.Get("/tasks/status/{status}", handler.ListTasksByStatus)
	r.Get("/tasks/count/{status}", handler.CountTasksByStatus)
	r.Post("/tasks/complete", handler.CompleteTasks)
	r.Get("/tasks/{id}", handler.GetTask)
	r.Put("/tasks/{id}", handler.UpdateTask)
	r.Delete("/tasks/{id}", handler.DeleteTask)
	r.Post("/tasks/{id}/complete", handler.CompleteTask)

	return r
}

func testTask(t *testing.T, userID uuid.UUID) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(
		userID,
		"Write report",
		"Quarterly numbers",
		time.Now().UTC().Add(24*time.Hour),
		domain.PriorityHigh,
	)
	require.NoError(t, err)
	return task
}

func doJSON(t *testing.T, router http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTaskHandler_CreateTask(t *testing.T) {
	userID := uuid.New()
	svc := &stubTaskService{
		createFn: func(ctx context.Context, uid uuid.UUID, params service.TaskCreation) (*domain.Task, error) {
			assert.Equal(t, userID, uid)
			assert.Equal(t, "Write report", params.Title)
			assert.Equal(t, domain.PriorityHigh, params.Priority)
			return testTask(t, uid), nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":    "Write report",
		"deadline": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"priority": "high",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Write report", resp.Title)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "alice", resp.Username)
	assert.False(t, resp.IsOverdue)
}

func TestTaskHandler_CreateTask_MissingTitle(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	rec := doJSON(t, router, http.MethodPost, "/tasks", map[string]interface{}{
		"deadline": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_CreateTask_MalformedBody(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_CreateTask_Unauthenticated(t *testing.T) {
	// uuid.Nil in the context means no authenticated user
	router := newTaskRouter(&stubTaskService{}, uuid.Nil)

	rec := doJSON(t, router, http.MethodPost, "/tasks", map[string]interface{}{
		"title":    "Write report",
		"deadline": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskHandler_GetTask(t *testing.T) {
	userID := uuid.New()
	task := testTask(t, userID)
	svc := &stubTaskService{
		getFn: func(ctx context.Context, uid, taskID uuid.UUID) (*domain.Task, error) {
			assert.Equal(t, task.ID, taskID)
			return task, nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/tasks/"+task.ID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	// The raw body carries the owner identity, not just the struct defaults
	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, "alice", raw["username"])
	assert.Equal(t, userID.String(), raw["user_id"])
	assert.Equal(t, "Write report", raw["title"])
}

func TestTaskHandler_GetTask_NotFound(t *testing.T) {
	svc := &stubTaskService{
		getFn: func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
			return nil, service.ErrTaskNotFound
		},
	}
	router := newTaskRouter(svc, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/tasks/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Task not found", resp.Error)
}

func TestTaskHandler_GetTask_InvalidID(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/tasks/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	userID := uuid.New()
	task := testTask(t, userID)
	svc := &stubTaskService{
		updateFn: func(ctx context.Context, uid, taskID uuid.UUID, update service.TaskUpdate) (*domain.Task, error) {
			require.NotNil(t, update.Title)
			assert.Equal(t, "New title", *update.Title)
			assert.Nil(t, update.Status)
			task.Title = *update.Title
			return task, nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodPut, "/tasks/"+task.ID.String(), map[string]interface{}{
		"title": "New title",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "New title", resp.Title)
}

func TestTaskHandler_UpdateTask_InvalidStatus(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	rec := doJSON(t, router, http.MethodPut, "/tasks/"+uuid.NewString(), map[string]interface{}{
		"status": "archived",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_CompleteTask(t *testing.T) {
	userID := uuid.New()
	task := testTask(t, userID)
	task.MarkCompleted(time.Now().UTC())

	svc := &stubTaskService{
		completeFn: func(ctx context.Context, uid, taskID uuid.UUID) (*domain.Task, error) {
			assert.Equal(t, task.ID, taskID)
			return task, nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodPost, "/tasks/"+task.ID.String()+"/complete", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "completed", resp.Status)
	assert.NotNil(t, resp.CompletedAt)
	assert.False(t, resp.IsOverdue)
}

func TestTaskHandler_CompleteTasks_BulkRejection(t *testing.T) {
	svc := &stubTaskService{
		completeAllFn: func(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) ([]*domain.Task, error) {
			return nil, service.ErrTaskNotFound
		},
	}
	router := newTaskRouter(svc, uuid.New())

	rec := doJSON(t, router, http.MethodPost, "/tasks/complete", map[string]interface{}{
		"task_ids": []string{uuid.NewString(), uuid.NewString()},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_CompleteTasks_EmptyBatchRejected(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	rec := doJSON(t, router, http.MethodPost, "/tasks/complete", map[string]interface{}{
		"task_ids": []string{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_ListOverdueTasks(t *testing.T) {
	userID := uuid.New()
	asOf := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	late := testTask(t, userID)
	late.Deadline = asOf.Add(-time.Hour)

	svc := &stubTaskService{
		listOverdueFn: func(ctx context.Context, uid uuid.UUID, referenceTime time.Time) ([]*domain.Task, error) {
			assert.True(t, referenceTime.Equal(asOf))
			return []*domain.Task{late}, nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/tasks/overdue?as_of="+asOf.Format(time.RFC3339), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.True(t, resp[0].IsOverdue)
}

func TestTaskHandler_ListTasksByDateRange_MissingBounds(t *testing.T) {
	router := newTaskRouter(&stubTaskService{}, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/tasks/range", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskHandler_ListTasksByStatus(t *testing.T) {
	userID := uuid.New()
	svc := &stubTaskService{
		listStatusFn: func(ctx context.Context, uid uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error) {
			assert.Equal(t, domain.TaskStatusPending, status)
			return []*domain.Task{testTask(t, uid)}, nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodGet, "/tasks/status/pending", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []TaskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 1)
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	svc := &stubTaskService{
		deleteFn: func(ctx context.Context, uid, tid uuid.UUID) error {
			assert.Equal(t, taskID, tid)
			return nil
		},
	}
	router := newTaskRouter(svc, userID)

	rec := doJSON(t, router, http.MethodDelete, "/tasks/"+taskID.String(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTaskHandler_CountTasksByStatus(t *testing.T) {
	svc := &stubTaskService{
		countFn: func(ctx context.Context, userID uuid.UUID, status domain.TaskStatus) (int64, error) {
			return 3, nil
		},
	}
	router := newTaskRouter(svc, uuid.New())

	rec := doJSON(t, router, http.MethodGet, "/tasks/count/pending", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskCountResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, int64(3), resp.Count)
}
