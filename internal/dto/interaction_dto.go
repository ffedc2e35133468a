package dto

import (
	"time"

	"github.com/noah-isme/gradlink-api/internal/models"
)

// InteractionCreateRequest records an investor's engagement with a project.
type InteractionCreateRequest struct {
	ProjectID uint   `json:"projectId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=message bookmark contact interest like view favorite"`
	Message   string `json:"message" validate:"omitempty,max=4000"`
}

// InteractionResponse is the serialized representation of an interaction.
type InteractionResponse struct {
	ID           uint      `json:"id"`
	InvestorID   uint      `json:"investorId"`
	ProjectID    uint      `json:"projectId"`
	ProjectTitle string    `json:"projectTitle,omitempty"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
	Created      bool      `json:"created"`
}

// NewInteractionResponse converts an interaction model into its DTO.
func NewInteractionResponse(interaction models.Interaction) InteractionResponse {
	return InteractionResponse{
		ID:         interaction.ID,
		InvestorID: interaction.InvestorID,
		ProjectID:  interaction.ProjectID,
		Type:       interaction.Type,
		Message:    interaction.Message,
		CreatedAt:  interaction.CreatedAt,
	}
}
