package dto

import (
	"strings"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// DateLayout is the wire format of project start and end dates
const DateLayout = "2006-01-02"

// Date marshals a calendar date without a time component
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	t, err := ParseDate(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDate parses a YYYY-MM-DD date in UTC
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

func toDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	StartDate   *Date                `json:"start_date"`
	EndDate     *Date                `json:"end_date"`
	OwnerID     uint64               `json:"owner_id"`
	Owner       *UserDTO             `json:"owner,omitempty"`
	TeamMembers []UserDTO            `json:"team_members"`
	TaskCount   *int64               `json:"task_count,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Status:      project.Status,
		StartDate:   toDate(project.StartDate),
		EndDate:     toDate(project.EndDate),
		OwnerID:     project.OwnerID,
		TeamMembers: ToUserDTOs(project.TeamMembers),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	// Include owner if preloaded
	if project.Owner.ID != 0 {
		owner := ToUserDTO(project.Owner)
		dto.Owner = &owner
	}

	return dto
}

// WithTaskCount sets the number of tasks linked to the project
func (p ProjectDTO) WithTaskCount(count int64) ProjectDTO {
	p.TaskCount = &count
	return p
}

// ToProjectListResponse converts a page of projects, attaching task counts
func ToProjectListResponse(projects []models.Project, taskCounts map[uint64]int64, params utils.PaginationParams, total int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project).WithTaskCount(taskCounts[project.ID])
	}

	return ProjectListResponse{
		Projects:   items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
