package services

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

// AccessPolicy answers who may change what. Visibility itself is enforced by
// the repositories; these checks run on entities the caller can already see.
type AccessPolicy struct {
	projectRepo repository.ProjectRepository
}

func NewAccessPolicy(projectRepo repository.ProjectRepository) *AccessPolicy {
	return &AccessPolicy{projectRepo: projectRepo}
}

// CanManageProject reports whether the user may edit, delete or change the
// team of a project.
func (p *AccessPolicy) CanManageProject(project *models.Project, userID uint64) bool {
	return project.IsOwner(userID)
}

// CanEditTask allows the creator, the assignee and owners of a containing project.
func (p *AccessPolicy) CanEditTask(ctx context.Context, task *models.Task, userID uint64) (bool, error) {
	if task.CreatedByID == userID {
		return true, nil
	}
	if task.AssignedToID != nil && *task.AssignedToID == userID {
		return true, nil
	}
	return p.ownsContainingProject(ctx, task, userID)
}

// CanDeleteTask allows the creator and owners of a containing project.
func (p *AccessPolicy) CanDeleteTask(ctx context.Context, task *models.Task, userID uint64) (bool, error) {
	if task.CreatedByID == userID {
		return true, nil
	}
	return p.ownsContainingProject(ctx, task, userID)
}

// CanBeAssigned reports whether userID may hold the task. Unscoped tasks are
// private, so only their creator can hold them; project tasks need the owner
// or a team member of one of their projects.
func (p *AccessPolicy) CanBeAssigned(ctx context.Context, task *models.Task, userID uint64) (bool, error) {
	projectIDs := task.ProjectIDs()
	if len(projectIDs) == 0 {
		return task.CreatedByID == userID, nil
	}

	count, err := p.projectRepo.CountMemberships(ctx, projectIDs, userID)
	if err != nil {
		return false, fmt.Errorf("failed to verify project membership: %w", err)
	}
	return count > 0, nil
}

func (p *AccessPolicy) ownsContainingProject(ctx context.Context, task *models.Task, userID uint64) (bool, error) {
	projectIDs := task.ProjectIDs()
	if len(projectIDs) == 0 {
		return false, nil
	}

	count, err := p.projectRepo.CountOwned(ctx, projectIDs, userID)
	if err != nil {
		return false, fmt.Errorf("failed to verify project ownership: %w", err)
	}
	return count > 0, nil
}
