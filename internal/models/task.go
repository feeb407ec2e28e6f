package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskStatuses lists every accepted status value.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusCompleted}

func (s TaskStatus) IsValid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task is owned by exactly one user. UserID is set at creation and never
// changes; every query that addresses a single task filters on it.
type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index:idx_tasks_owner_created,priority:1"`
	Description string     `json:"description" gorm:"not null"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index:idx_tasks_owner_created,priority:2"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskView is the projection returned by list and update.
type TaskView struct {
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
}

func (t *Task) View() TaskView {
	return TaskView{Description: t.Description, Status: t.Status}
}
