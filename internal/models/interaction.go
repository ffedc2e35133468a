package models

import (
	"fmt"
	"time"
)

// Interaction types an investor can record against a project.
const (
	InteractionMessage  = "message"
	InteractionBookmark = "bookmark"
	InteractionContact  = "contact"
	InteractionInterest = "interest"
	InteractionLike     = "like"
	InteractionView     = "view"
	InteractionFavorite = "favorite"
)

// Interaction records an investor's engagement with a project.
type Interaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InvestorID uint      `gorm:"index;not null" json:"investorId"`
	ProjectID  uint      `gorm:"index;not null" json:"projectId"`
	Type       string    `gorm:"size:32;index;not null" json:"type"`
	Message    string    `gorm:"type:text" json:"message"`
	DedupKey   *string   `gorm:"size:96;uniqueIndex" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// IsIdempotentInteraction reports whether only one interaction of this type may exist per investor and project.
func IsIdempotentInteraction(kind string) bool {
	return kind == InteractionBookmark || kind == InteractionFavorite || kind == InteractionLike
}

// InteractionDedupKey returns the unique key for idempotent interaction types and nil for the rest,
// which may repeat freely.
func InteractionDedupKey(investorID, projectID uint, kind string) *string {
	if !IsIdempotentInteraction(kind) {
		return nil
	}
	key := fmt.Sprintf("%d:%d:%s", investorID, projectID, kind)
	return &key
}
