package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project status in display order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusPlanning,
	ProjectStatusInProgress,
	ProjectStatusOnHold,
	ProjectStatusCompleted,
	ProjectStatusCancelled,
}

// IsValid reports whether s is a known project status.
func (s ProjectStatus) IsValid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Project struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	Title       string        `gorm:"type:varchar(200);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'planning'" json:"status"`
	OwnerID     uint64        `gorm:"not null;index" json:"owner_id"`
	StartDate   *time.Time    `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time    `gorm:"type:date" json:"end_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Relations
	Owner       User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	TeamMembers []User `gorm:"many2many:project_members;" json:"team_members,omitempty"`
}

// ProjectMember is the join row behind Project.TeamMembers. The owner is
// never stored here; ownership is checked through Project.OwnerID.
type ProjectMember struct {
	ProjectID uint64    `gorm:"primarykey" json:"project_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}

// IsOwner reports whether userID owns the project.
func (p *Project) IsOwner(userID uint64) bool {
	return p.OwnerID == userID
}
