package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Sort keys accepted by List. Anything else falls back to newest first.
const (
	OrderByCreatedAt = "created_at"
	OrderByUpdatedAt = "updated_at"
	OrderByDueDate   = "due_date"
	OrderByPriority  = "priority"
	OrderByStatus    = "status"
	OrderByTitle     = "title"
)

// TaskOrderFields lists the sortable task fields.
var TaskOrderFields = []string{
	OrderByCreatedAt,
	OrderByUpdatedAt,
	OrderByDueDate,
	OrderByPriority,
	OrderByStatus,
	OrderByTitle,
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task, projectID *uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		if projectID == nil {
			return nil
		}

		link := models.ProjectTask{ProjectID: *projectID, TaskID: task.ID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		task.ProjectLinks = []models.ProjectTask{link}

		return touchProject(tx, *projectID)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindVisible finds a task the user is allowed to see
func (r *GormTaskRepository) FindVisible(ctx context.Context, id, userID uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(VisibleTasks(userID))

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves visible tasks with filtering and pagination. A PageSize of
// zero returns every matching row.
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(VisibleTasks(filter.VisibleTo))

	if filter.ProjectID != nil {
		linked := r.db.Model(&models.ProjectTask{}).
			Select("1").
			Where("project_tasks.task_id = tasks.id").
			Where("project_tasks.project_id = ?", *filter.ProjectID)
		query = query.Where("EXISTS (?)", linked)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedUserID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := containsPattern(term)
		query = query.Where(likeAny("tasks.title", "tasks.description"), like, like)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}
	if filter.OverdueAt != nil {
		query = query.Where("tasks.due_date < ? AND tasks.status <> ?", *filter.OverdueAt, models.TaskStatusDone)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := applyTaskOrdering(query, filter.Ordering).
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	err := listQuery.
		Preload("CreatedBy").
		Preload("AssignedTo").
		Preload("ProjectLinks").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func applyTaskOrdering(query *gorm.DB, ordering *TaskOrdering) *gorm.DB {
	if ordering == nil {
		return query.Order("tasks.created_at DESC").Order("tasks.id DESC")
	}

	dir := "ASC"
	if ordering.Desc {
		dir = "DESC"
	}

	switch ordering.Field {
	case OrderByDueDate:
		query = query.
			Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").
			Order("tasks.due_date " + dir)
	case OrderByPriority:
		query = query.Order(rankExpr("tasks.priority", models.TaskPriorities) + " " + dir)
	case OrderByStatus:
		query = query.Order(rankExpr("tasks.status", models.TaskStatuses) + " " + dir)
	case OrderByUpdatedAt:
		query = query.Order("tasks.updated_at " + dir)
	case OrderByTitle:
		query = query.Order("tasks.title " + dir)
	default:
		query = query.Order("tasks.created_at " + dir)
	}

	return query.Order("tasks.id DESC")
}

// rankExpr orders an enum column by its declaration order instead of
// alphabetically.
func rankExpr[T ~string](column string, values []T) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(values))
	return b.String()
}

// Update saves every column of a task and bumps updated_at
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// UpdateAssignee writes only the assignee of a task
func (r *GormTaskRepository) UpdateAssignee(ctx context.Context, task *models.Task) error {
	return r.updateColumns(ctx, task, "assigned_to_id")
}

// UpdateCompletion writes only the status and completion fields of a task
func (r *GormTaskRepository) UpdateCompletion(ctx context.Context, task *models.Task) error {
	return r.updateColumns(ctx, task, "status", "completed", "completed_at")
}

func (r *GormTaskRepository) updateColumns(ctx context.Context, task *models.Task, columns ...string) error {
	selected := append([]string{"updated_at"}, columns...)
	return r.db.WithContext(ctx).Model(task).Select(selected).Updates(task).Error
}

// Delete removes a task together with its project links
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.ProjectTask{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ProjectIDs lists the projects a task belongs to
func (r *GormTaskRepository) ProjectIDs(ctx context.Context, taskID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectTask{}).
		Where("task_id = ?", taskID).
		Order("project_id").
		Pluck("project_id", &ids).Error
	return ids, err
}

// touchProject bumps a project's updated_at after its members or tasks change.
func touchProject(tx *gorm.DB, projectID uint64) error {
	return tx.Model(&models.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("updated_at", time.Now()).Error
}
