package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/models"
)

const projectSelect = `SELECT p.*, COALESCE(u.name, '') AS graduate_name
FROM projects p
LEFT JOIN users u ON u.id = p.graduate_id`

// ProjectRecord is a project row joined with its graduate's display name.
type ProjectRecord struct {
	models.Project
	GraduateName string `gorm:"column:graduate_name;->"`
}

// ProjectRepository provides persistence helpers for showcase projects.
type ProjectRepository interface {
	ListPublished(ctx context.Context, filter ProjectFilter) ([]ProjectRecord, int64, error)
	ListByGraduate(ctx context.Context, graduateID uint) ([]ProjectRecord, error)
	ListByStatus(ctx context.Context, status string, page, pageSize int) ([]ProjectRecord, int64, error)
	GetByID(ctx context.Context, id uint) (ProjectRecord, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) (int64, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository constructs a project repository backed by GORM.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ListPublished(ctx context.Context, filter ProjectFilter) ([]ProjectRecord, int64, error) {
	where, args := BuildProjectWhere(filter)
	page, pageSize := normalizePagination(filter.Page, filter.PageSize)

	return r.selectPage(ctx, where, args, page, pageSize)
}

func (r *projectRepository) ListByGraduate(ctx context.Context, graduateID uint) ([]ProjectRecord, error) {
	query := projectSelect + " WHERE p.graduate_id = ? ORDER BY p.created_at DESC, p.id DESC"

	var records []ProjectRecord
	if err := r.db.WithContext(ctx).Raw(query, graduateID).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *projectRepository) ListByStatus(ctx context.Context, status string, page, pageSize int) ([]ProjectRecord, int64, error) {
	where := "1 = 1"
	var args []any
	if status = strings.TrimSpace(status); status != "" {
		where = "p.status = ?"
		args = append(args, status)
	}

	page, pageSize = normalizePagination(page, pageSize)
	return r.selectPage(ctx, where, args, page, pageSize)
}

func (r *projectRepository) selectPage(ctx context.Context, where string, args []any, page, pageSize int) ([]ProjectRecord, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	countQuery := "SELECT COUNT(*) FROM projects p WHERE " + where
	if err := db.Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	listQuery := projectSelect + " WHERE " + where + " ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"
	listArgs := append(append([]any{}, args...), pageSize, (page-1)*pageSize)

	var records []ProjectRecord
	if err := db.Raw(listQuery, listArgs...).Scan(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	return records, total, nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (ProjectRecord, error) {
	query := projectSelect + " WHERE p.id = ? LIMIT 1"

	var records []ProjectRecord
	if err := r.db.WithContext(ctx).Raw(query, id).Scan(&records).Error; err != nil {
		return ProjectRecord{}, err
	}
	if len(records) == 0 {
		return ProjectRecord{}, gorm.ErrRecordNotFound
	}
	return records[0], nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// projectEditableColumns are the columns an owner edit may touch. Counters are only ever changed
// through IncrementViews and adjustProjectLikes.
var projectEditableColumns = []string{
	"title", "description", "category", "impact_area", "funding_goal", "status",
	"images", "videos", "documents", "updated_at",
}

// Update writes the editable columns only, so concurrent view and like updates are preserved.
func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ?", project.ID).
		Select(projectEditableColumns).
		Updates(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Interaction{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IncrementViews bumps the counter in a single UPDATE and re-reads the stored value.
func (r *projectRepository) IncrementViews(ctx context.Context, id uint) (int64, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.Project{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var views int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Select("views").Scan(&views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// adjustProjectLikes shifts the like counter in place, never below zero.
func adjustProjectLikes(db *gorm.DB, id uint, delta int) error {
	if delta == 0 {
		return nil
	}

	query := db.Model(&models.Project{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("likes >= ?", -delta)
	}
	return query.UpdateColumn("likes", gorm.Expr("likes + ?", delta)).Error
}
