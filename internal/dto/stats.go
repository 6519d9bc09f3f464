package dto

import (
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// TaskStatsResponse is the task dashboard payload. high_priority counts
// tasks at high priority or above (high and urgent).
type TaskStatsResponse struct {
	Total        int64                         `json:"total"`
	Todo         int64                         `json:"todo"`
	InProgress   int64                         `json:"in_progress"`
	Review       int64                         `json:"review"`
	Done         int64                         `json:"done"`
	Overdue      int64                         `json:"overdue"`
	HighPriority int64                         `json:"high_priority"`
	ByPriority   map[models.TaskPriority]int64 `json:"by_priority"`
}

// ProjectStatsResponse is the project dashboard payload
type ProjectStatsResponse struct {
	Total      int64 `json:"total"`
	Planning   int64 `json:"planning"`
	InProgress int64 `json:"in_progress"`
	OnHold     int64 `json:"on_hold"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
	Owned      int64 `json:"owned"`
	TeamOnly   int64 `json:"team_only"`
}

func ToTaskStatsResponse(stats services.TaskStats) TaskStatsResponse {
	return TaskStatsResponse{
		Total:        stats.Total,
		Todo:         stats.ByStatus[models.TaskStatusTodo],
		InProgress:   stats.ByStatus[models.TaskStatusInProgress],
		Review:       stats.ByStatus[models.TaskStatusReview],
		Done:         stats.ByStatus[models.TaskStatusDone],
		Overdue:      stats.Overdue,
		HighPriority: stats.HighPriority,
		ByPriority:   stats.ByPriority,
	}
}

func ToProjectStatsResponse(stats services.ProjectStats) ProjectStatsResponse {
	return ProjectStatsResponse{
		Total:      stats.Total,
		Planning:   stats.ByStatus[models.ProjectStatusPlanning],
		InProgress: stats.ByStatus[models.ProjectStatusInProgress],
		OnHold:     stats.ByStatus[models.ProjectStatusOnHold],
		Completed:  stats.ByStatus[models.ProjectStatusCompleted],
		Cancelled:  stats.ByStatus[models.ProjectStatusCancelled],
		Owned:      stats.Owned,
		TeamOnly:   stats.TeamOnly,
	}
}
