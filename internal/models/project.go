package models

import (
	"strings"
	"time"
)

// Project statuses.
const (
	ProjectStatusDraft     = "draft"
	ProjectStatusPending   = "pending"
	ProjectStatusPublished = "published"
	ProjectStatusCompleted = "completed"
	ProjectStatusRejected  = "rejected"
)

// Project is a graduate's showcase listing. Media lists are persisted as JSON-encoded text.
type Project struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Category       string    `gorm:"size:128;index" json:"category"`
	ImpactArea     string    `gorm:"size:128" json:"impactArea"`
	ImagesJSON     string    `gorm:"column:images;type:text" json:"-"`
	VideosJSON     string    `gorm:"column:videos;type:text" json:"-"`
	DocumentsJSON  string    `gorm:"column:documents;type:text" json:"-"`
	GraduateID     uint      `gorm:"index;not null" json:"graduateId"`
	Status         string    `gorm:"size:32;index;not null;default:pending" json:"status"`
	FundingGoal    *float64  `json:"fundingGoal"`
	CurrentFunding float64   `gorm:"not null;default:0" json:"currentFunding"`
	Views          int64     `gorm:"not null;default:0" json:"views"`
	Likes          int64     `gorm:"not null;default:0" json:"likes"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NormalizeProjectStatus maps legacy aliases onto canonical statuses. Unknown values return "".
func NormalizeProjectStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case ProjectStatusDraft:
		return ProjectStatusDraft
	case ProjectStatusPending, "under_review":
		return ProjectStatusPending
	case ProjectStatusPublished, "active":
		return ProjectStatusPublished
	case ProjectStatusCompleted:
		return ProjectStatusCompleted
	case ProjectStatusRejected:
		return ProjectStatusRejected
	default:
		return ""
	}
}
