package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// FindVisible finds a project the user owns or is a team member of
func (r *GormProjectRepository) FindVisible(ctx context.Context, id, userID uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db.WithContext(ctx).Model(&models.Project{}).Scopes(VisibleProjects(userID))

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("projects.id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// List retrieves visible projects with filtering and pagination. A PageSize
// of zero returns every matching row.
func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, int64, error) {
	var projects []models.Project

	query := r.db.WithContext(ctx).Model(&models.Project{}).Scopes(VisibleProjects(filter.VisibleTo))

	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := containsPattern(term)
		query = query.Where(likeAny("projects.title", "projects.description"), like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.
		Order("projects.created_at DESC").
		Order("projects.id DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Owner").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error
}

// Delete removes a project, its team rows and its task links. Linked tasks
// are left in place.
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectTask{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a user to the team; adding an existing member is a no-op
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member := models.ProjectMember{ProjectID: projectID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
			return err
		}

		return touchProject(tx, projectID)
	})
}

// RemoveMember removes a user from the team
func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectMember{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		return touchProject(tx, projectID)
	})
}

// ListMembers lists the explicit team members of a project
func (r *GormProjectRepository) ListMembers(ctx context.Context, projectID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", projectID).
		Order("users.username").
		Find(&users).Error
	return users, err
}

// CountMemberships counts how many of projectIDs the user owns or belongs to
func (r *GormProjectRepository) CountMemberships(ctx context.Context, projectIDs []uint64, userID uint64) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Scopes(VisibleProjects(userID)).
		Where("projects.id IN ?", projectIDs).
		Count(&count).Error

	return count, err
}

// CountOwned counts how many of projectIDs the user owns
func (r *GormProjectRepository) CountOwned(ctx context.Context, projectIDs []uint64, userID uint64) (int64, error) {
	if len(projectIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id IN ? AND owner_id = ?", projectIDs, userID).
		Count(&count).Error

	return count, err
}

// AddTask links a task to a project; linking twice is a no-op
func (r *GormProjectRepository) AddTask(ctx context.Context, projectID, taskID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link := models.ProjectTask{ProjectID: projectID, TaskID: taskID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return err
		}

		return touchProject(tx, projectID)
	})
}

// RemoveTask unlinks a task and reports whether a link existed
func (r *GormProjectRepository) RemoveTask(ctx context.Context, projectID, taskID uint64) (bool, error) {
	var removed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("project_id = ? AND task_id = ?", projectID, taskID).Delete(&models.ProjectTask{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		removed = true
		return touchProject(tx, projectID)
	})
	return removed, err
}

type projectTaskCount struct {
	ProjectID uint64
	Count     int64
}

// CountTasks returns the number of linked tasks per project
func (r *GormProjectRepository) CountTasks(ctx context.Context, projectIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []projectTaskCount
	err := r.db.WithContext(ctx).
		Model(&models.ProjectTask{}).
		Select("project_id, COUNT(*) AS count").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ProjectID] = row.Count
	}
	return counts, nil
}
