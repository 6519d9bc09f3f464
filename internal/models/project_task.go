package models

import "time"

// ProjectTask associates a task with a project. A task may belong to several
// projects; each (project, task) pair appears at most once.
type ProjectTask struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	TaskID    uint64    `gorm:"primarykey;index" json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
