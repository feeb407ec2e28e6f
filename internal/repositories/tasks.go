package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todo-api/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const ownedTaskFilter = "id = ? AND user_id = ?"

// TaskPatch carries the optional fields of an update. Nil means unchanged.
type TaskPatch struct {
	Description *string
	Status      *models.TaskStatus
}

// TaskRepository is the task store. Every single-task operation is addressed
// by task id and owner id together.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	UpdateByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID, patch TaskPatch) (*models.Task, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error)
}

type gormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("generate task id: %w", err)
		}
		task.ID = id
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// FindByOwner returns the owner's tasks, newest first.
func (r *gormTaskRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("find tasks by owner: %w", err)
	}
	return tasks, nil
}

// UpdateByIDAndOwner applies the patch and refreshes updated_at. The UPDATE
// itself carries the compound filter, so a task owned by someone else is
// never touched and reads as ErrNotFound.
func (r *gormTaskRepository) UpdateByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID, patch TaskPatch) (*models.Task, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}

	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).Where(ownedTaskFilter, id, ownerID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where(ownedTaskFilter, id, ownerID).First(&task).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// DeleteByIDAndOwner removes the task and returns it as it was.
func (r *gormTaskRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(ownedTaskFilter, id, ownerID).First(&task).Error; err != nil {
			return err
		}
		res := tx.Where(ownedTaskFilter, id, ownerID).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return &task, nil
}
