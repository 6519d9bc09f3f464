package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/validation"
)

var validationErrors = []error{
	services.ErrUsernameRequired,
	services.ErrInvalidEmail,
	services.ErrTitleRequired,
	services.ErrTitleEmpty,
	services.ErrInvalidTaskStatus,
	services.ErrInvalidTaskPriority,
	services.ErrInvalidProjectStatus,
	services.ErrInvalidDateRange,
	services.ErrInvalidStatusFilter,
	services.ErrInvalidPriorityFilter,
	services.ErrInvalidDueDateFilter,
	services.ErrInvalidOrdering,
	services.ErrInvalidProjectFilter,
	services.ErrAssigneeNotMember,
	services.ErrCannotRemoveOwner,
	services.ErrGenerateTextRequired,
	services.ErrAINoTasksGenerated,
	services.ErrAINoValidTasks,
	services.ErrAITooManyTasks,
}

var notFoundErrors = []error{
	services.ErrTaskNotFound,
	services.ErrProjectNotFound,
	services.ErrUserNotFound,
	services.ErrTaskNotInProject,
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondServiceError maps service sentinels onto the API error envelope.
// Anything unrecognized is logged and reported as a 500 without details.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrAssigneeRequired), errors.Is(err, services.ErrUserIDRequired):
		apierrors.MissingField(c, "user_id")
	case errors.Is(err, services.ErrTaskIDRequired):
		apierrors.MissingField(c, "task_id")
	case isAny(err, validationErrors...):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied), errors.Is(err, services.ErrProjectPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case isAny(err, notFoundErrors...):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(constants.ContextKeyRequestID)).
			Str("path", c.FullPath()).
			Msg("Unhandled service error")
		apierrors.InternalError(c, "")
	}
}

// respondBindError reports a request that failed to bind or validate.
func respondBindError(c *gin.Context, err error) {
	if details := validation.Describe(err); details != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", details)
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}
