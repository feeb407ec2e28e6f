package handlers

import (
	"net/http"

	"todo-api/backend/internal/middleware"
	"todo-api/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var input services.CreateTaskInput
	if !bindJSON(c, &input) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"success": true,
		"task":    task,
	})
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	list, err := h.taskService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Tasks retrieved successfully"
	if list.Empty {
		message = "No tasks found"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"success": true,
		"tasks":   list.Tasks,
		"empty":   list.Empty,
	})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	var input services.UpdateTaskInput
	if !bindJSON(c, &input) {
		return
	}

	view, err := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"success": true,
		"task":    view,
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		respondUnauthenticated(c)
		return
	}

	task, err := h.taskService.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"success": true,
		"task":    task,
	})
}
