package models

import "time"

// Message is a direct message between two users, optionally about a project.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"index;not null" json:"senderId"`
	RecipientID uint      `gorm:"index;not null" json:"recipientId"`
	ProjectID   *uint     `gorm:"index" json:"projectId"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsRead      bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
