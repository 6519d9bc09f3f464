package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidTaskPriority    = errors.New("invalid task priority")
	ErrAssigneeRequired       = errors.New("user_id is required")
	ErrAssigneeNotMember      = errors.New("user is not a member of the project")
	ErrGenerateTextRequired   = errors.New("text is required")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAITooManyTasks         = fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
)

var taskPreloads = []string{"CreatedBy", "AssignedTo", "ProjectLinks"}

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	access      *AccessPolicy
	generator   TaskGenerator
	now         func() time.Time
}

// NewTaskService creates a new TaskService. generator may be nil when AI
// generation is not configured.
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	generator TaskGenerator,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		access:      NewAccessPolicy(projectRepo),
		generator:   generator,
		now:         time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	ProjectID   *uint64
	CreatorID   uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// ListTasks returns tasks visible to a user matching the query
func (s *TaskService) ListTasks(ctx context.Context, userID uint64, query TaskQuery) ([]models.Task, int64, error) {
	filter, err := BuildTaskFilter(query, userID, s.now())
	if err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// DashboardStats aggregates every task the list query would return, ignoring
// pagination.
func (s *TaskService) DashboardStats(ctx context.Context, userID uint64, query TaskQuery) (TaskStats, error) {
	query.Page, query.PageSize = 0, 0

	tasks, _, err := s.ListTasks(ctx, userID, query)
	if err != nil {
		return TaskStats{}, err
	}

	return ComputeTaskStats(tasks, s.now()), nil
}

// GetTask returns a task the user can see, with related data
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindVisible(ctx, taskID, userID, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task, optionally inside a project the creator can see
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidTaskPriority
	}

	if input.ProjectID != nil {
		if err := s.ensureProjectVisible(ctx, *input.ProjectID, input.CreatorID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     utcTime(input.DueDate),
		CreatedByID: input.CreatorID,
	}
	task.SetStatus(input.Status, s.now())

	if err := s.taskRepo.Create(ctx, task, input.ProjectID); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// UpdateTask merges the given fields into a task the user may edit
func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.access.CanEditTask(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrTaskPermissionDenied
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidTaskStatus
		}
		task.SetStatus(*input.Status, s.now())
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = utcTime(input.DueDate)
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// DeleteTask deletes a task if the user is its creator or owns one of its projects
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uint64) error {
	task, err := s.GetTask(ctx, taskID, userID)
	if err != nil {
		return err
	}

	allowed, err := s.access.CanDeleteTask(ctx, task, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrTaskPermissionDenied
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// AssignTask sets the assignee. Project tasks can only go to members of one of
// their projects.
func (s *TaskService) AssignTask(ctx context.Context, taskID, actorID uint64, assigneeID *uint64) (*models.Task, error) {
	if assigneeID == nil || *assigneeID == 0 {
		return nil, ErrAssigneeRequired
	}

	task, err := s.GetTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, *assigneeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	eligible, err := s.access.CanBeAssigned(ctx, task, *assigneeID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrAssigneeNotMember
	}

	task.AssignedToID = assigneeID
	if err := s.taskRepo.UpdateAssignee(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// UnassignTask clears the assignee
func (s *TaskService) UnassignTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	task.AssignedToID = nil
	task.AssignedTo = nil
	if err := s.taskRepo.UpdateAssignee(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to unassign task: %w", err)
	}

	return s.reload(ctx, task.ID)
}

// CompleteTask marks a visible task done
func (s *TaskService) CompleteTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	task.MarkCompleted(s.now())
	if err := s.taskRepo.UpdateCompletion(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	return task, nil
}

// ReopenTask moves a visible task back to todo
func (s *TaskService) ReopenTask(ctx context.Context, taskID, actorID uint64) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	task.MarkReopened()
	if err := s.taskRepo.UpdateCompletion(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to reopen task: %w", err)
	}

	return task, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text      string
	CreatorID uint64
	ProjectID *uint64
	// Save creates the suggestions as tasks instead of only returning them
	Save bool
}

// GenerateTasksResult holds the suggestions and, when saved, the created tasks
type GenerateTasksResult struct {
	Suggestions []GeneratedTask
	Created     []models.Task
}

// GenerateTasks uses AI to suggest tasks from text
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) (*GenerateTasksResult, error) {
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrGenerateTextRequired
	}
	if input.ProjectID != nil {
		if err := s.ensureProjectVisible(ctx, *input.ProjectID, input.CreatorID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	aiTasks, err := s.generator.GenerateTasksFromText(ctx, input.Text, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := now.Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		if !aiTask.Priority.IsValid() {
			aiTask.Priority = models.TaskPriorityMedium
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	result := &GenerateTasksResult{Suggestions: validTasks}
	if !input.Save {
		return result, nil
	}

	result.Created = make([]models.Task, 0, len(validTasks))
	for _, suggestion := range validTasks {
		task, err := s.CreateTask(ctx, CreateTaskInput{
			Title:       suggestion.Title,
			Description: suggestion.Description,
			Priority:    suggestion.Priority,
			DueDate:     suggestion.DueDate,
			ProjectID:   input.ProjectID,
			CreatorID:   input.CreatorID,
		})
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *task)
	}

	return result, nil
}

func (s *TaskService) ensureProjectVisible(ctx context.Context, projectID, userID uint64) error {
	if _, err := s.projectRepo.FindVisible(ctx, projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	return nil
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return task, nil
}

// utcTime returns a copy of t in UTC.
func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
