package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/models"
)

// GroupCount is a labelled count produced by a GROUP BY query.
type GroupCount struct {
	Label string `gorm:"column:label"`
	Total int64  `gorm:"column:total"`
}

// AdminAnalyticsRepository supplies data for the administrator stats dashboard.
type AdminAnalyticsRepository interface {
	CountUsersByRole(ctx context.Context) ([]GroupCount, error)
	CountProjectsByStatus(ctx context.Context) ([]GroupCount, error)
	CountInteractionsByType(ctx context.Context) ([]GroupCount, error)
	CountMessages(ctx context.Context) (int64, error)
	SumProjectViews(ctx context.Context) (int64, error)
	ListInteractionTimesSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

type adminAnalyticsRepository struct {
	db *gorm.DB
}

// NewAdminAnalyticsRepository constructs the analytics repository.
func NewAdminAnalyticsRepository(db *gorm.DB) AdminAnalyticsRepository {
	return &adminAnalyticsRepository{db: db}
}

func (r *adminAnalyticsRepository) CountUsersByRole(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &models.User{}, "role")
}

func (r *adminAnalyticsRepository) CountProjectsByStatus(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &models.Project{}, "status")
}

func (r *adminAnalyticsRepository) CountInteractionsByType(ctx context.Context) ([]GroupCount, error) {
	return r.groupCount(ctx, &models.Interaction{}, "type")
}

func (r *adminAnalyticsRepository) groupCount(ctx context.Context, model any, column string) ([]GroupCount, error) {
	var counts []GroupCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order(column).
		Scan(&counts).Error
	return counts, err
}

func (r *adminAnalyticsRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).Count(&count).Error
	return count, err
}

func (r *adminAnalyticsRepository) SumProjectViews(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Select("COALESCE(SUM(views), 0)").
		Scan(&total).Error
	return total, err
}

func (r *adminAnalyticsRepository) ListInteractionTimesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var interactions []models.Interaction
	err := r.db.WithContext(ctx).
		Select("created_at").
		Where("created_at >= ?", since).
		Find(&interactions).Error
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(interactions))
	for _, interaction := range interactions {
		times = append(times, interaction.CreatedAt)
	}
	return times, nil
}
