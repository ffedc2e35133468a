package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gradlink-api/internal/models"
)

const interactionSelect = `SELECT i.*,
	p.title AS project_title,
	p.graduate_id AS graduate_id,
	COALESCE(g.name, '') AS graduate_name,
	COALESCE(g.avatar_url, '') AS graduate_avatar,
	COALESCE(inv.name, '') AS investor_name,
	COALESCE(inv.avatar_url, '') AS investor_avatar
FROM interactions i
JOIN projects p ON p.id = i.project_id
LEFT JOIN users g ON g.id = p.graduate_id
LEFT JOIN users inv ON inv.id = i.investor_id`

// InteractionRecord is an interaction joined with its project and both participants.
type InteractionRecord struct {
	models.Interaction
	ProjectTitle   string `gorm:"column:project_title;->"`
	GraduateID     uint   `gorm:"column:graduate_id;->"`
	GraduateName   string `gorm:"column:graduate_name;->"`
	GraduateAvatar string `gorm:"column:graduate_avatar;->"`
	InvestorName   string `gorm:"column:investor_name;->"`
	InvestorAvatar string `gorm:"column:investor_avatar;->"`
}

// InteractionRepository provides persistence helpers for investor interactions.
type InteractionRepository interface {
	Record(ctx context.Context, interaction *models.Interaction) (bool, error)
	GetByID(ctx context.Context, id uint) (models.Interaction, error)
	Delete(ctx context.Context, interaction models.Interaction) error
	ListByInvestor(ctx context.Context, investorID uint, kind string) ([]InteractionRecord, error)
	ListForGraduate(ctx context.Context, graduateID uint) ([]InteractionRecord, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository constructs an interaction repository backed by GORM.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

// Record inserts the interaction unless an idempotent twin already exists, in which case the
// stored row is loaded into interaction and false is returned. A new like bumps the project's
// counter in the same transaction.
func (r *interactionRepository) Record(ctx context.Context, interaction *models.Interaction) (bool, error) {
	interaction.DedupKey = models.InteractionDedupKey(interaction.InvestorID, interaction.ProjectID, interaction.Type)

	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insert := tx
		if interaction.DedupKey != nil {
			insert = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "dedup_key"}},
				DoNothing: true,
			})
		}
		result := insert.Create(interaction)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			key := *interaction.DedupKey
			*interaction = models.Interaction{}
			return tx.Where("dedup_key = ?", key).First(interaction).Error
		}

		created = true
		if interaction.Type != models.InteractionLike {
			return nil
		}
		return adjustProjectLikes(tx, interaction.ProjectID, 1)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *interactionRepository) GetByID(ctx context.Context, id uint) (models.Interaction, error) {
	var interaction models.Interaction
	if err := r.db.WithContext(ctx).First(&interaction, id).Error; err != nil {
		return models.Interaction{}, err
	}
	return interaction, nil
}

// Delete removes the interaction and, for likes, decrements the project's counter without going
// below zero.
func (r *interactionRepository) Delete(ctx context.Context, interaction models.Interaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Interaction{}, interaction.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if interaction.Type != models.InteractionLike {
			return nil
		}
		return adjustProjectLikes(tx, interaction.ProjectID, -1)
	})
}

// ListByInvestor returns the investor's interactions, newest first.
func (r *interactionRepository) ListByInvestor(ctx context.Context, investorID uint, kind string) ([]InteractionRecord, error) {
	query := interactionSelect + " WHERE i.investor_id = ?"
	args := []any{investorID}
	if kind = strings.TrimSpace(kind); kind != "" {
		query += " AND i.type = ?"
		args = append(args, kind)
	}
	query += " ORDER BY i.created_at DESC, i.id DESC"

	var records []InteractionRecord
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListForGraduate returns interactions on any of the graduate's projects, newest first.
func (r *interactionRepository) ListForGraduate(ctx context.Context, graduateID uint) ([]InteractionRecord, error) {
	query := interactionSelect + " WHERE p.graduate_id = ? ORDER BY i.created_at DESC, i.id DESC"

	var records []InteractionRecord
	if err := r.db.WithContext(ctx).Raw(query, graduateID).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
