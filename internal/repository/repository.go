package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task, linking it to projectID when given
	Create(ctx context.Context, task *models.Task, projectID *uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// FindVisible finds a task the user is allowed to see
	FindVisible(ctx context.Context, id, userID uint64, preload ...string) (*models.Task, error)

	// List retrieves visible tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves every column of a task and bumps updated_at
	Update(ctx context.Context, task *models.Task) error

	// UpdateAssignee writes only assigned_to_id and updated_at
	UpdateAssignee(ctx context.Context, task *models.Task) error

	// UpdateCompletion writes only status, completed, completed_at and updated_at
	UpdateCompletion(ctx context.Context, task *models.Task) error

	// Delete removes a task together with its project links
	Delete(ctx context.Context, id uint64) error

	// ProjectIDs lists the projects a task belongs to
	ProjectIDs(ctx context.Context, taskID uint64) ([]uint64, error)
}

// TaskOrdering is a whitelisted sort key for task lists
type TaskOrdering struct {
	Field string
	Desc  bool
}

// TaskFilter holds filtering options for listing tasks. All set fields are
// combined with AND.
type TaskFilter struct {
	VisibleTo      uint64
	ProjectID      *uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	Search         string
	AssignedUserID *uint64
	// DueDateFrom and DueDateTo bound due_date as [from, to)
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	// OverdueAt selects open tasks due strictly before the given instant
	OverdueAt *time.Time
	Ordering  *TaskOrdering
	Page      int
	PageSize  int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error)

	// FindVisible finds a project the user owns or is a team member of
	FindVisible(ctx context.Context, id, userID uint64, preload ...string) (*models.Project, error)

	// List retrieves visible projects with filtering and pagination
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves a project
	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project, its team rows and its task links
	Delete(ctx context.Context, id uint64) error

	// AddMember adds a user to the team; adding an existing member is a no-op
	AddMember(ctx context.Context, projectID, userID uint64) error

	// RemoveMember removes a user from the team
	RemoveMember(ctx context.Context, projectID, userID uint64) error

	// ListMembers lists the explicit team members of a project
	ListMembers(ctx context.Context, projectID uint64) ([]models.User, error)

	// CountMemberships counts how many of projectIDs the user owns or belongs to
	CountMemberships(ctx context.Context, projectIDs []uint64, userID uint64) (int64, error)

	// CountOwned counts how many of projectIDs the user owns
	CountOwned(ctx context.Context, projectIDs []uint64, userID uint64) (int64, error)

	// AddTask links a task to a project; linking twice is a no-op
	AddTask(ctx context.Context, projectID, taskID uint64) error

	// RemoveTask unlinks a task and reports whether a link existed
	RemoveTask(ctx context.Context, projectID, taskID uint64) (bool, error)

	// CountTasks returns the number of linked tasks per project
	CountTasks(ctx context.Context, projectIDs []uint64) (map[uint64]int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	VisibleTo uint64
	Status    *models.ProjectStatus
	Search    string
	Page      int
	PageSize  int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List lists users matching search, ordered by username
	List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error)

	// Update saves profile changes
	Update(ctx context.Context, user *models.User) error

	// Delete removes a user and applies the cascade policy to owned data
	Delete(ctx context.Context, id uint64) error
}
