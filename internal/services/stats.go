package services

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// TaskStats summarizes a set of tasks for dashboards. HighPriority counts
// high and urgent tasks.
type TaskStats struct {
	Total        int64
	ByStatus     map[models.TaskStatus]int64
	ByPriority   map[models.TaskPriority]int64
	Overdue      int64
	HighPriority int64
}

// ComputeTaskStats reduces tasks to dashboard figures. A task is overdue when
// it is still open and its due date is before now.
func ComputeTaskStats(tasks []models.Task, now time.Time) TaskStats {
	stats := TaskStats{
		ByStatus:   make(map[models.TaskStatus]int64, len(models.TaskStatuses)),
		ByPriority: make(map[models.TaskPriority]int64, len(models.TaskPriorities)),
	}
	for _, status := range models.TaskStatuses {
		stats.ByStatus[status] = 0
	}
	for _, priority := range models.TaskPriorities {
		stats.ByPriority[priority] = 0
	}

	for _, task := range tasks {
		stats.Total++
		stats.ByStatus[task.Status]++
		stats.ByPriority[task.Priority]++

		if task.Priority.IsHigh() {
			stats.HighPriority++
		}
		if task.Status.IsOpen() && task.DueDate != nil && task.DueDate.Before(now) {
			stats.Overdue++
		}
	}

	return stats
}

// ProjectStats summarizes the projects visible to one user.
type ProjectStats struct {
	Total    int64
	ByStatus map[models.ProjectStatus]int64
	Owned    int64
	TeamOnly int64
}

// ComputeProjectStats reduces projects visible to userID. Every visible
// project is either owned or reached through team membership.
func ComputeProjectStats(projects []models.Project, userID uint64) ProjectStats {
	stats := ProjectStats{
		ByStatus: make(map[models.ProjectStatus]int64, len(models.ProjectStatuses)),
	}
	for _, status := range models.ProjectStatuses {
		stats.ByStatus[status] = 0
	}

	for _, project := range projects {
		stats.Total++
		stats.ByStatus[project.Status]++
		if project.IsOwner(userID) {
			stats.Owned++
		} else {
			stats.TeamOnly++
		}
	}

	return stats
}
