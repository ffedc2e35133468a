package dto

import (
	"time"

	"github.com/noah-isme/gradlink-api/internal/models"
)

// MessageSendRequest is the payload for a direct message.
type MessageSendRequest struct {
	RecipientID uint   `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required,min=1,max=4000"`
	ProjectID   *uint  `json:"projectId" validate:"omitempty,gt=0"`
}

// MessageResponse is the serialized representation of a direct message.
type MessageResponse struct {
	ID          uint      `json:"id"`
	SenderID    uint      `json:"senderId"`
	RecipientID uint      `json:"recipientId"`
	ProjectID   *uint     `json:"projectId,omitempty"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UnreadCountResponse reports the number of unread incoming messages.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// NewMessageResponse converts a message model into its DTO.
func NewMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:          message.ID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		ProjectID:   message.ProjectID,
		Content:     message.Content,
		IsRead:      message.IsRead,
		CreatedAt:   message.CreatedAt,
	}
}

// NewMessageResponseSlice converts messages into DTOs.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}
