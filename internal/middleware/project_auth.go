package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// ProjectLoader loads a project the user owns or belongs to
type ProjectLoader interface {
	GetProject(ctx context.Context, projectID, userID uint64) (*models.Project, error)
}

// RequireProjectAccess loads the project named by :id into the context.
// Projects outside the caller's visible set are reported as not found.
func RequireProjectAccess(projects ProjectLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		project, err := projects.GetProject(c.Request.Context(), projectID, userID)
		if err != nil {
			if errors.Is(err, services.ErrProjectNotFound) {
				apierrors.NotFound(c, "Project not found")
			} else {
				log.Error().Err(err).Uint64("project_id", projectID).Msg("Failed to load project")
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetProject returns the project loaded by RequireProjectAccess
func GetProject(c *gin.Context) (*models.Project, bool) {
	v, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := v.(*models.Project)
	return project, ok
}
