package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	DueDate      *time.Time          `json:"due_date"`
	Completed    bool                `json:"completed"`
	CompletedAt  *time.Time          `json:"completed_at"`
	CreatedByID  uint64              `json:"created_by_id"`
	CreatedBy    *UserDTO            `json:"created_by,omitempty"`
	AssignedToID *uint64             `json:"assigned_to_id"`
	AssignedTo   *UserDTO            `json:"assigned_to,omitempty"`
	ProjectIDs   []uint64            `json:"project_ids"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// GeneratedTaskDTO is a single AI suggestion
type GeneratedTaskDTO struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// GenerateTasksResponse lists AI suggestions and any tasks created from them
type GenerateTasksResponse struct {
	Tasks   []GeneratedTaskDTO `json:"tasks"`
	Created []TaskDTO          `json:"created,omitempty"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		DueDate:      task.DueDate,
		Completed:    task.Completed,
		CompletedAt:  task.CompletedAt,
		CreatedByID:  task.CreatedByID,
		AssignedToID: task.AssignedToID,
		ProjectIDs:   task.ProjectIDs(),
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	// Include creator if preloaded
	if task.CreatedBy.ID != 0 {
		creator := ToUserDTO(task.CreatedBy)
		dto.CreatedBy = &creator
	}

	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignee := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignee
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToGenerateTasksResponse converts AI suggestions and any created tasks
func ToGenerateTasksResponse(result services.GenerateTasksResult) GenerateTasksResponse {
	suggestions := make([]GeneratedTaskDTO, len(result.Suggestions))
	for i, s := range result.Suggestions {
		suggestions[i] = GeneratedTaskDTO{
			Title:       s.Title,
			Description: s.Description,
			Priority:    s.Priority,
			DueDate:     s.DueDate,
		}
	}

	resp := GenerateTasksResponse{Tasks: suggestions}
	if len(result.Created) > 0 {
		resp.Created = ToTaskDTOs(result.Created)
	}
	return resp
}
