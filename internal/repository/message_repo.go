package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gradlink-api/internal/models"
)

const messageThreadLimit = 200

// MessageRecord is a message joined with the identity of the other participant.
type MessageRecord struct {
	models.Message
	CounterpartID     uint   `gorm:"column:counterpart_id;->"`
	CounterpartName   string `gorm:"column:counterpart_name;->"`
	CounterpartRole   string `gorm:"column:counterpart_role;->"`
	CounterpartAvatar string `gorm:"column:counterpart_avatar;->"`
}

// MessageRepository persists direct messages between users.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (models.Message, error)
	ListForUser(ctx context.Context, userID uint) ([]MessageRecord, error)
	Thread(ctx context.Context, userID, otherID uint, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id uint) error
	MarkThreadRead(ctx context.Context, recipientID, senderID uint) (int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return models.Message{}, err
	}
	return message, nil
}

// ListForUser returns every message the user sent or received, newest first, with the
// counterpart resolved from whichever side the user is not on.
func (r *messageRepository) ListForUser(ctx context.Context, userID uint) ([]MessageRecord, error) {
	const query = `SELECT m.*,
	u.id AS counterpart_id,
	u.name AS counterpart_name,
	u.role AS counterpart_role,
	COALESCE(u.avatar_url, '') AS counterpart_avatar
FROM messages m
JOIN users u ON u.id = CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END
WHERE m.sender_id = ? OR m.recipient_id = ?
ORDER BY m.created_at DESC, m.id DESC`

	var records []MessageRecord
	if err := r.db.WithContext(ctx).Raw(query, userID, userID, userID).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Thread returns the latest messages exchanged between two users in chronological order.
func (r *messageRepository) Thread(ctx context.Context, userID, otherID uint, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > messageThreadLimit {
		limit = messageThreadLimit
	}

	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", userID, otherID, otherID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) MarkThreadRead(ctx context.Context, recipientID, senderID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *messageRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
