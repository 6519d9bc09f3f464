package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists every task status in workflow order.
var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusReview,
	TaskStatusDone,
}

// IsValid reports whether s is a known task status.
func (s TaskStatus) IsValid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsOpen reports whether a task in this status still counts as outstanding.
func (s TaskStatus) IsOpen() bool {
	return s != TaskStatusDone
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// TaskPriorities lists every priority from lowest to highest.
var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// IsHigh reports whether p counts towards the high-priority dashboard figure.
func (p TaskPriority) IsHigh() bool {
	return p == TaskPriorityHigh || p == TaskPriorityUrgent
}

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"type:varchar(200);not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'todo';index" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	DueDate      *time.Time   `gorm:"index" json:"due_date"`
	Completed    bool         `gorm:"not null;default:false" json:"completed"`
	CompletedAt  *time.Time   `json:"completed_at"`
	CreatedByID  uint64       `gorm:"not null;index" json:"created_by_id"`
	AssignedToID *uint64      `gorm:"index" json:"assigned_to_id"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	CreatedBy    User          `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"created_by,omitempty"`
	AssignedTo   *User         `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"assigned_to,omitempty"`
	ProjectLinks []ProjectTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
}

// MarkCompleted moves the task to done and stamps the completion time.
func (t *Task) MarkCompleted(now time.Time) {
	t.Status = TaskStatusDone
	t.Completed = true
	t.CompletedAt = &now
}

// MarkReopened returns the task to todo and clears the completion stamp.
func (t *Task) MarkReopened() {
	t.Status = TaskStatusTodo
	t.Completed = false
	t.CompletedAt = nil
}

// SetStatus changes the status and keeps Completed and CompletedAt in step.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	switch {
	case status == TaskStatusDone && !t.Completed:
		t.MarkCompleted(now)
	case status != TaskStatusDone:
		t.Status = status
		t.Completed = false
		t.CompletedAt = nil
	default:
		t.Status = status
	}
}

// ProjectIDs returns the IDs of the projects the task belongs to, if loaded.
func (t *Task) ProjectIDs() []uint64 {
	ids := make([]uint64, len(t.ProjectLinks))
	for i, link := range t.ProjectLinks {
		ids[i] = link.ProjectID
	}
	return ids
}
