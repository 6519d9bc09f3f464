package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrProjectPermissionDenied = errors.New("only the project owner can perform this action")
	ErrInvalidProjectStatus    = errors.New("invalid project status")
	ErrInvalidDateRange        = errors.New("end_date cannot be before start_date")
	ErrUserIDRequired          = errors.New("user_id is required")
	ErrTaskIDRequired          = errors.New("task_id is required")
	ErrCannotRemoveOwner       = errors.New("the project owner cannot be removed from the team")
	ErrTaskNotInProject        = errors.New("task is not part of this project")
)

var projectPreloads = []string{"Owner", "TeamMembers"}

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	access      *AccessPolicy
	now         func() time.Time
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repository.ProjectRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		access:      NewAccessPolicy(projectRepo),
		now:         time.Now,
	}
}

// ProjectQuery is the raw project list query as received from a client.
type ProjectQuery struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Title       string
	Description string
	Status      models.ProjectStatus
	StartDate   *time.Time
	EndDate     *time.Time
	OwnerID     uint64
}

// UpdateProjectInput represents input for updating a project. Clear flags
// null out the corresponding date.
type UpdateProjectInput struct {
	Title          *string
	Description    *string
	Status         *models.ProjectStatus
	StartDate      *time.Time
	EndDate        *time.Time
	ClearStartDate bool
	ClearEndDate   bool
}

// ListProjects returns the projects the user owns or belongs to
func (s *ProjectService) ListProjects(ctx context.Context, userID uint64, query ProjectQuery) ([]models.Project, int64, error) {
	filter := repository.ProjectFilter{
		VisibleTo: userID,
		Search:    query.Search,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}

	if raw := strings.TrimSpace(query.Status); raw != "" && raw != statusFilterAll {
		status := models.ProjectStatus(raw)
		if !status.IsValid() {
			return nil, 0, ErrInvalidStatusFilter
		}
		filter.Status = &status
	}

	projects, total, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, total, nil
}

// DashboardStats aggregates every project the list query would return
func (s *ProjectService) DashboardStats(ctx context.Context, userID uint64, query ProjectQuery) (ProjectStats, error) {
	query.Page, query.PageSize = 0, 0

	projects, _, err := s.ListProjects(ctx, userID, query)
	if err != nil {
		return ProjectStats{}, err
	}

	return ComputeProjectStats(projects, userID), nil
}

// TaskCounts returns the number of tasks linked to each project
func (s *ProjectService) TaskCounts(ctx context.Context, projects []models.Project) (map[uint64]int64, error) {
	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	counts, err := s.projectRepo.CountTasks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count project tasks: %w", err)
	}
	return counts, nil
}

// GetProject returns a project the user can see, with owner and team
func (s *ProjectService) GetProject(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindVisible(ctx, projectID, userID, projectPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}

// CreateProject creates a project owned by the caller
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if input.Status == "" {
		input.Status = models.ProjectStatusPlanning
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidProjectStatus
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:       title,
		Description: input.Description,
		Status:      input.Status,
		OwnerID:     input.OwnerID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.reload(ctx, project.ID)
}

// UpdateProject merges changes into a project owned by userID
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, userID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.getManaged(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		project.Title = title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}
	if input.ClearStartDate {
		project.StartDate = nil
	} else if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.ClearEndDate {
		project.EndDate = nil
	} else if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	if err := validateDateRange(project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.reload(ctx, project.ID)
}

// DeleteProject removes a project owned by userID. Its tasks are kept.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID, userID uint64) error {
	if _, err := s.getManaged(ctx, projectID, userID); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ListMembers returns the owner followed by the team members
func (s *ProjectService) ListMembers(ctx context.Context, projectID, userID uint64) ([]models.User, error) {
	project, err := s.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	team, err := s.projectRepo.ListMembers(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]models.User, 0, len(team)+1)
	members = append(members, project.Owner)
	for _, u := range team {
		if u.ID != project.OwnerID {
			members = append(members, u)
		}
	}
	return members, nil
}

// AddMember adds a user to the team. Adding the owner or an existing member
// changes nothing.
func (s *ProjectService) AddMember(ctx context.Context, projectID, actorID uint64, memberID *uint64) (*models.Project, error) {
	if memberID == nil || *memberID == 0 {
		return nil, ErrUserIDRequired
	}

	project, err := s.getManaged(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUserExists(ctx, *memberID); err != nil {
		return nil, err
	}

	if !project.IsOwner(*memberID) {
		if err := s.projectRepo.AddMember(ctx, project.ID, *memberID); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}

	return s.reload(ctx, project.ID)
}

// RemoveMember removes a user from the team. The owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, actorID uint64, memberID *uint64) (*models.Project, error) {
	if memberID == nil || *memberID == 0 {
		return nil, ErrUserIDRequired
	}

	project, err := s.getManaged(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if project.IsOwner(*memberID) {
		return nil, ErrCannotRemoveOwner
	}

	if err := s.ensureUserExists(ctx, *memberID); err != nil {
		return nil, err
	}

	if err := s.projectRepo.RemoveMember(ctx, project.ID, *memberID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return s.reload(ctx, project.ID)
}

// ListTasks lists the project's tasks using the task list query
func (s *ProjectService) ListTasks(ctx context.Context, projectID, userID uint64, query TaskQuery) ([]models.Task, int64, error) {
	if _, err := s.GetProject(ctx, projectID, userID); err != nil {
		return nil, 0, err
	}

	filter, err := BuildTaskFilter(query, userID, s.now())
	if err != nil {
		return nil, 0, err
	}
	filter.ProjectID = &projectID

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, total, nil
}

// TaskStats aggregates the project's tasks
func (s *ProjectService) TaskStats(ctx context.Context, projectID, userID uint64, query TaskQuery) (TaskStats, error) {
	query.Page, query.PageSize = 0, 0

	tasks, _, err := s.ListTasks(ctx, projectID, userID, query)
	if err != nil {
		return TaskStats{}, err
	}
	return ComputeTaskStats(tasks, s.now()), nil
}

// AddTask links a task the user can see to a project the user can see
func (s *ProjectService) AddTask(ctx context.Context, projectID, actorID uint64, taskID *uint64) (*models.Project, error) {
	if taskID == nil || *taskID == 0 {
		return nil, ErrTaskIDRequired
	}

	project, err := s.GetProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.taskRepo.FindVisible(ctx, *taskID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.projectRepo.AddTask(ctx, project.ID, *taskID); err != nil {
		return nil, fmt.Errorf("failed to add task: %w", err)
	}

	return s.reload(ctx, project.ID)
}

// RemoveTask unlinks a task from a project
func (s *ProjectService) RemoveTask(ctx context.Context, projectID, actorID uint64, taskID *uint64) (*models.Project, error) {
	if taskID == nil || *taskID == 0 {
		return nil, ErrTaskIDRequired
	}

	project, err := s.GetProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	removed, err := s.projectRepo.RemoveTask(ctx, project.ID, *taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove task: %w", err)
	}
	if !removed {
		return nil, ErrTaskNotInProject
	}

	return s.reload(ctx, project.ID)
}

// getManaged loads a visible project and checks that userID may manage it
func (s *ProjectService) getManaged(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	project, err := s.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanManageProject(project, userID) {
		return nil, ErrProjectPermissionDenied
	}
	return project, nil
}

func (s *ProjectService) ensureUserExists(ctx context.Context, userID uint64) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	return nil
}

func (s *ProjectService) reload(ctx context.Context, projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, projectPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}
	return project, nil
}

func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}
