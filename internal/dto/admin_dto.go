package dto

import "time"

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationMeta derives page counts from a total.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PaginationMeta{Page: page, PageSize: pageSize, TotalItems: total, TotalPages: pages}
}

// AdminProjectListQuery filters the moderation queue.
type AdminProjectListQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=draft pending published completed rejected under_review active"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"pageSize" validate:"omitempty,min=1,max=100"`
}

// AdminProjectListResponse wraps a page of projects for moderation.
type AdminProjectListResponse struct {
	Projects   []ProjectResponse `json:"projects"`
	Pagination PaginationMeta    `json:"pagination"`
}

// WeeklyEngagementPoint counts interactions recorded in a given week.
type WeeklyEngagementPoint struct {
	WeekStart    time.Time `json:"weekStart"`
	Interactions int64     `json:"interactions"`
}

// AdminStatsResponse aggregates platform-wide counters.
type AdminStatsResponse struct {
	UsersByRole        map[string]int64        `json:"usersByRole"`
	ProjectsByStatus   map[string]int64        `json:"projectsByStatus"`
	InteractionsByType map[string]int64        `json:"interactionsByType"`
	TotalUsers         int64                   `json:"totalUsers"`
	TotalProjects      int64                   `json:"totalProjects"`
	TotalMessages      int64                   `json:"totalMessages"`
	TotalViews         int64                   `json:"totalViews"`
	WeeklyEngagement   []WeeklyEngagementPoint `json:"weeklyEngagement"`
	GeneratedAt        time.Time               `json:"generatedAt"`
	CacheHit           bool                    `json:"cacheHit"`
}
