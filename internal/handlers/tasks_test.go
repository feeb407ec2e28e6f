package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todo-api/backend/internal/handlers"
	"todo-api/backend/internal/models"
	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockTaskService struct {
	err      error
	list     *services.TaskList
	lastUser uuid.UUID
	lastID   string
	created  services.CreateTaskInput
	updated  services.UpdateTaskInput
}

func (m *MockTaskService) Create(_ context.Context, userID uuid.UUID, input services.CreateTaskInput) (*models.Task, error) {
	m.lastUser, m.created = userID, input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: uuid.Must(uuid.NewV4()), UserID: userID, Description: input.Description, Status: models.TaskStatusPending}, nil
}

func (m *MockTaskService) List(_ context.Context, userID uuid.UUID) (*services.TaskList, error) {
	m.lastUser = userID
	if m.err != nil {
		return nil, m.err
	}
	if m.list != nil {
		return m.list, nil
	}
	return &services.TaskList{Tasks: []models.TaskView{}, Empty: true}, nil
}

func (m *MockTaskService) Update(_ context.Context, userID uuid.UUID, taskID string, input services.UpdateTaskInput) (*models.TaskView, error) {
	m.lastUser, m.lastID, m.updated = userID, taskID, input
	if m.err != nil {
		return nil, m.err
	}
	return &models.TaskView{Description: "buy milk", Status: models.TaskStatusCompleted}, nil
}

func (m *MockTaskService) Delete(_ context.Context, userID uuid.UUID, taskID string) (*models.Task, error) {
	m.lastUser, m.lastID = userID, taskID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: uuid.FromStringOrNil(taskID), UserID: userID, Description: "buy milk", Status: models.TaskStatusPending}, nil
}

func setupTaskRouter(svc services.TaskService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if userID != uuid.Nil {
		router.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
			c.Next()
		})
	}

	h := handlers.NewTaskHandler(svc)
	router.POST("/tasks", h.CreateTask)
	router.GET("/tasks", h.GetTasks)
	router.PUT("/tasks/:id", h.UpdateTask)
	router.DELETE("/tasks/:id", h.DeleteTask)
	return router
}

func perform(router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestCreateTask(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	svc := &MockTaskService{}
	router := setupTaskRouter(svc, userID)

	w, body := perform(router, http.MethodPost, "/tasks", `{"description":"buy milk","user_id":"someone-else"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Task created successfully", body["message"])
	task := body["task"].(map[string]interface{})
	assert.Equal(t, "buy milk", task["description"])
	assert.Equal(t, userID.String(), task["user_id"])
	assert.Equal(t, userID, svc.lastUser)
}

func TestCreateTask_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"missing", services.NewError(services.KindMissingField, services.MsgTaskRequired), http.StatusBadRequest, services.MsgTaskRequired},
		{"status", services.NewError(services.KindInvalidStatus, services.MsgInvalidStatus), http.StatusBadRequest, services.MsgInvalidStatus},
		{"internal", services.WrapError(services.KindInternal, "db", errors.New("disk full")), http.StatusInternalServerError, services.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTaskRouter(&MockTaskService{err: tt.err}, uuid.Must(uuid.NewV4()))

			w, body := perform(router, http.MethodPost, "/tasks", `{}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "disk full")
		})
	}
}

func TestCreateTask_MalformedJSON(t *testing.T) {
	svc := &MockTaskService{}
	router := setupTaskRouter(svc, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodPost, "/tasks", `{"description":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", body["message"])
	assert.Equal(t, uuid.Nil, svc.lastUser)
}

func TestCreateTask_EmptyBodyReachesService(t *testing.T) {
	svc := &MockTaskService{err: services.NewError(services.KindMissingField, services.MsgTaskRequired)}
	router := setupTaskRouter(svc, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodPost, "/tasks", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.MsgTaskRequired, body["message"])
}

func TestTaskHandlers_RequireIdentity(t *testing.T) {
	svc := &MockTaskService{}
	router := setupTaskRouter(svc, uuid.Nil)

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/tasks", `{"description":"x"}`},
		{http.MethodGet, "/tasks", ""},
		{http.MethodPut, "/tasks/abc", `{"status":"completed"}`},
		{http.MethodDelete, "/tasks/abc", ""},
	}
	for _, r := range requests {
		w, body := perform(router, r.method, r.path, r.body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.method+" "+r.path)
		assert.Equal(t, false, body["success"])
	}
	assert.Equal(t, uuid.Nil, svc.lastUser)
}

func TestGetTasks_Empty(t *testing.T) {
	router := setupTaskRouter(&MockTaskService{}, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodGet, "/tasks", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "No tasks found", body["message"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["empty"])
	assert.Equal(t, []interface{}{}, body["tasks"])
}

func TestGetTasks_WithTasks(t *testing.T) {
	svc := &MockTaskService{list: &services.TaskList{Tasks: []models.TaskView{
		{Description: "newest", Status: models.TaskStatusPending},
		{Description: "oldest", Status: models.TaskStatusCompleted},
	}}}
	router := setupTaskRouter(svc, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodGet, "/tasks", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tasks retrieved successfully", body["message"])
	assert.Equal(t, false, body["empty"])
	tasks := body["tasks"].([]interface{})
	require.Len(t, tasks, 2)
	assert.Equal(t, map[string]interface{}{"description": "newest", "status": "pending"}, tasks[0])
}

func TestUpdateTask(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	svc := &MockTaskService{}
	router := setupTaskRouter(svc, userID)

	w, body := perform(router, http.MethodPut, "/tasks/task-1", `{"status":"completed"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task updated successfully", body["message"])
	assert.Equal(t, map[string]interface{}{"description": "buy milk", "status": "completed"}, body["task"])
	assert.Equal(t, "task-1", svc.lastID)
	assert.Equal(t, userID, svc.lastUser)
	require.NotNil(t, svc.updated.Status)
	assert.Equal(t, models.TaskStatusCompleted, *svc.updated.Status)
	assert.Nil(t, svc.updated.Description)
}

func TestUpdateTask_NotFound(t *testing.T) {
	router := setupTaskRouter(&MockTaskService{err: services.NewError(services.KindNotFound, services.MsgTaskNotFound)}, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodPut, "/tasks/x", `{"status":"completed"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.MsgTaskNotFound, body["message"])
}

func TestDeleteTask(t *testing.T) {
	taskID := uuid.Must(uuid.NewV4())
	svc := &MockTaskService{}
	router := setupTaskRouter(svc, uuid.Must(uuid.NewV4()))

	w, body := perform(router, http.MethodDelete, "/tasks/"+taskID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Task deleted successfully", body["message"])
	assert.Equal(t, taskID.String(), body["task"].(map[string]interface{})["id"])
}

func TestDeleteTask_NotFound(t *testing.T) {
	router := setupTaskRouter(&MockTaskService{err: services.NewError(services.KindNotFound, services.MsgTaskNotFound)}, uuid.Must(uuid.NewV4()))

	w, _ := perform(router, http.MethodDelete, "/tasks/x", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
