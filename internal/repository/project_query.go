package repository

import (
	"strings"

	"github.com/noah-isme/gradlink-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProjectFilter narrows the public project listing.
type ProjectFilter struct {
	Category   string
	GraduateID *uint
	Search     string
	Page       int
	PageSize   int
}

// BuildProjectWhere produces the conjunctive WHERE clause for the public listing. The status
// condition is always present; other conditions are appended only when the filter sets them.
// Every value is returned as a bound argument and never appears in the clause text.
func BuildProjectWhere(filter ProjectFilter) (string, []any) {
	conditions := []string{"p.status = ?"}
	args := []any{models.ProjectStatusPublished}

	if category := strings.TrimSpace(filter.Category); category != "" {
		conditions = append(conditions, "p.category = ?")
		args = append(args, category)
	}

	if filter.GraduateID != nil {
		conditions = append(conditions, "p.graduate_id = ?")
		args = append(args, *filter.GraduateID)
	}

	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + term + "%"
		conditions = append(conditions, "(p.title LIKE ? OR p.description LIKE ?)")
		args = append(args, pattern, pattern)
	}

	return strings.Join(conditions, " AND "), args
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
