package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gradlink-api/internal/media"
)

// ProjectCreateRequest is the payload for publishing a new project. Media fields accept either
// a JSON array or a JSON-encoded string holding an array.
type ProjectCreateRequest struct {
	Title        string          `json:"title" validate:"required,min=3,max=255"`
	Description  string          `json:"description" validate:"omitempty,max=10000"`
	Category     string          `json:"category" validate:"required,max=128"`
	ImpactArea   string          `json:"impactArea" validate:"omitempty,max=128"`
	FundingGoal  *float64        `json:"fundingGoal" validate:"omitempty,gte=0"`
	Status       string          `json:"status" validate:"omitempty,oneof=draft pending"`
	ImageURLs    json.RawMessage `json:"imageUrls"`
	VideoURLs    json.RawMessage `json:"videoUrls"`
	DocumentURLs json.RawMessage `json:"documentUrls"`
}

// ProjectUpdateRequest captures partial edits by the owning graduate.
type ProjectUpdateRequest struct {
	Title        *string         `json:"title" validate:"omitempty,min=3,max=255"`
	Description  *string         `json:"description" validate:"omitempty,max=10000"`
	Category     *string         `json:"category" validate:"omitempty,max=128"`
	ImpactArea   *string         `json:"impactArea" validate:"omitempty,max=128"`
	FundingGoal  *float64        `json:"fundingGoal" validate:"omitempty,gte=0"`
	Status       *string         `json:"status" validate:"omitempty,oneof=draft pending completed"`
	ImageURLs    json.RawMessage `json:"imageUrls"`
	VideoURLs    json.RawMessage `json:"videoUrls"`
	DocumentURLs json.RawMessage `json:"documentUrls"`
}

// ProjectListQuery holds the public listing filters.
type ProjectListQuery struct {
	Category   string `query:"category" validate:"omitempty,max=128"`
	GraduateID uint   `query:"graduateId"`
	Search     string `query:"search" validate:"omitempty,max=255"`
	Page       int    `query:"page" validate:"omitempty,min=1"`
	PageSize   int    `query:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ProjectStatusRequest is the admin moderation payload.
type ProjectStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=published rejected pending completed under_review active"`
}

// ProjectResponse is the serialized representation of a project. Media lists are always
// re-normalized from storage before they reach this type.
type ProjectResponse struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	ImpactArea     string    `json:"impactArea"`
	Images         []string  `json:"images"`
	Videos         []string  `json:"videos"`
	Documents      []string  `json:"documents"`
	GraduateID     uint      `json:"graduateId"`
	GraduateName   string    `json:"graduateName,omitempty"`
	Status         string    `json:"status"`
	FundingGoal    *float64  `json:"fundingGoal"`
	CurrentFunding float64   `json:"currentFunding"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProjectListResponse is the public listing payload.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
	Total    int64             `json:"total"`
}

// ProjectEnvelope wraps a single project.
type ProjectEnvelope struct {
	Project ProjectResponse `json:"project"`
}

// MediaAuditResponse reports what the strict normalizer finds in a project's stored media.
type MediaAuditResponse struct {
	ProjectID  uint                     `json:"projectId"`
	Clean      bool                     `json:"clean"`
	Accepted   media.Set                `json:"accepted"`
	Rejections []*media.ValidationError `json:"rejections"`
}
