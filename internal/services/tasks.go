package services

import (
	"context"
	"errors"

	"todo-api/backend/internal/logging"
	"todo-api/backend/internal/models"
	"todo-api/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// CreateTaskInput.Status defaults to pending when omitted. A supplied status,
// including an empty one, must be a known value.
type CreateTaskInput struct {
	Description string             `json:"description" validate:"required"`
	Status      *models.TaskStatus `json:"status" validate:"omitnil,oneof=pending completed"`
}

// UpdateTaskInput fields are optional. A nil field is left unchanged; a
// supplied description must not be empty.
type UpdateTaskInput struct {
	Description *string            `json:"description" validate:"omitnil,min=1"`
	Status      *models.TaskStatus `json:"status" validate:"omitnil,oneof=pending completed"`
}

type TaskList struct {
	Tasks []models.TaskView `json:"tasks"`
	Empty bool              `json:"empty"`
}

// TaskService operates on the tasks of one authenticated user. The owner is
// always the userID argument, never a value taken from the payload.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error)
	List(ctx context.Context, userID uuid.UUID) (*TaskList, error)
	Update(ctx context.Context, userID uuid.UUID, taskID string, input UpdateTaskInput) (*models.TaskView, error)
	Delete(ctx context.Context, userID uuid.UUID, taskID string) (*models.Task, error)
}

type TaskServiceImpl struct {
	tasks  repositories.TaskRepository
	logger *logrus.Logger
}

func NewTaskService(tasks repositories.TaskRepository, logger *logrus.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, logger: logging.OrDiscard(logger)}
}

func requireOwner(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return NewError(KindUnauthenticated, MsgUnauthenticated)
	}
	return nil
}

// parseTaskID treats an unparsable id like an unknown one.
func parseTaskID(taskID string) (uuid.UUID, error) {
	id, err := uuid.FromString(taskID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, NewError(KindNotFound, MsgTaskNotFound)
	}
	return id, nil
}

func (s *TaskServiceImpl) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if err := validateInput(input, MsgTaskRequired); err != nil {
		return nil, err
	}

	status := models.TaskStatusPending
	if input.Status != nil {
		status = *input.Status
	}

	task := &models.Task{
		UserID:      userID,
		Description: input.Description,
		Status:      status,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("create task failed")
		return nil, internalError(err)
	}
	return task, nil
}

// List returns the user's tasks newest first. An empty list is not an error.
func (s *TaskServiceImpl) List(ctx context.Context, userID uuid.UUID) (*TaskList, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByOwner(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("list tasks failed")
		return nil, internalError(err)
	}

	views := make([]models.TaskView, 0, len(tasks))
	for i := range tasks {
		views = append(views, tasks[i].View())
	}
	return &TaskList{Tasks: views, Empty: len(views) == 0}, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, userID uuid.UUID, taskID string, input UpdateTaskInput) (*models.TaskView, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	if err := validateInput(input, MsgTaskRequired); err != nil {
		return nil, err
	}
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.UpdateByIDAndOwner(ctx, id, userID, repositories.TaskPatch{
		Description: input.Description,
		Status:      input.Status,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, MsgTaskNotFound)
		}
		s.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "task_id": id}).Error("update task failed")
		return nil, internalError(err)
	}

	view := task.View()
	return &view, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, userID uuid.UUID, taskID string) (*models.Task, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.DeleteByIDAndOwner(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewError(KindNotFound, MsgTaskNotFound)
		}
		s.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "task_id": id}).Error("delete task failed")
		return nil, internalError(err)
	}
	return task, nil
}
