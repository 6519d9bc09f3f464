package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

var (
	ErrInvalidStatusFilter   = errors.New("invalid status filter")
	ErrInvalidPriorityFilter = errors.New("invalid priority filter")
	ErrInvalidDueDateFilter  = errors.New("due_date must be one of overdue, today, week")
	ErrInvalidOrdering       = errors.New("invalid ordering")
	ErrInvalidProjectFilter  = errors.New("project_id must be a positive integer")
)

const statusFilterAll = "all"

// Due date buckets accepted by the due_date filter.
const (
	DueOverdue = "overdue"
	DueToday   = "today"
	DueWeek    = "week"
)

// TaskQuery is the raw task list query as received from a client.
type TaskQuery struct {
	Status       string
	Priority     string
	Search       string
	DueDate      string
	ProjectID    string
	AssignedToMe bool
	Ordering     string
	Page         int
	PageSize     int
}

// BuildTaskFilter turns a raw query into a repository filter for userID.
// Empty parameters are ignored; unknown values are rejected.
func BuildTaskFilter(q TaskQuery, userID uint64, now time.Time) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		VisibleTo: userID,
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
	}

	if raw := strings.TrimSpace(q.Status); raw != "" && raw != statusFilterAll {
		status := models.TaskStatus(raw)
		if !status.IsValid() {
			return filter, ErrInvalidStatusFilter
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(q.Priority); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.IsValid() {
			return filter, ErrInvalidPriorityFilter
		}
		filter.Priority = &priority
	}

	if raw := strings.TrimSpace(q.ProjectID); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return filter, ErrInvalidProjectFilter
		}
		filter.ProjectID = &id
	}

	if q.AssignedToMe {
		filter.AssignedUserID = &userID
	}

	if err := applyDueDate(&filter, strings.TrimSpace(q.DueDate), now); err != nil {
		return filter, err
	}

	ordering, err := parseOrdering(strings.TrimSpace(q.Ordering))
	if err != nil {
		return filter, err
	}
	filter.Ordering = ordering

	return filter, nil
}

// applyDueDate bounds due_date for a bucket. Due dates are stored in UTC, so
// the bounds are too, and "today" is the current UTC day.
func applyDueDate(filter *repository.TaskFilter, bucket string, now time.Time) error {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch bucket {
	case "":
	case DueOverdue:
		filter.OverdueAt = &now
	case DueToday:
		end := startOfDay.AddDate(0, 0, 1)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &end
	case DueWeek:
		// today plus the following seven days, inclusive
		end := startOfDay.AddDate(0, 0, 8)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &end
	default:
		return ErrInvalidDueDateFilter
	}
	return nil
}

func parseOrdering(raw string) (*repository.TaskOrdering, error) {
	if raw == "" {
		return nil, nil
	}

	ordering := &repository.TaskOrdering{Field: raw}
	if strings.HasPrefix(raw, "-") {
		ordering.Field = raw[1:]
		ordering.Desc = true
	}

	for _, field := range repository.TaskOrderFields {
		if ordering.Field == field {
			return ordering, nil
		}
	}
	return nil, ErrInvalidOrdering
}
