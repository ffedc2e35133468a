package models

import (
	"time"

	"gorm.io/datatypes"
)

// User roles.
const (
	RoleGraduate = "graduate"
	RoleInvestor = "investor"
	RoleAdmin    = "admin"
)

// User is a platform account: a graduate publishing projects, an investor browsing them, or an admin.
type User struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:255;not null" json:"name"`
	Email        string            `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string            `gorm:"size:255" json:"-"`
	Role         string            `gorm:"size:32;index;not null" json:"role"`
	Bio          string            `gorm:"type:text" json:"bio"`
	University   string            `gorm:"size:255" json:"university"`
	Company      string            `gorm:"size:255" json:"company"`
	AvatarURL    string            `gorm:"size:512" json:"avatarUrl"`
	SocialLinks  datatypes.JSONMap `gorm:"type:json" json:"socialLinks"`
	GoogleID     *string           `gorm:"size:128;uniqueIndex" json:"-"`
	IsActive     bool              `gorm:"not null;default:true" json:"isActive"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// IsValidRole reports whether role is one of the known account roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleGraduate, RoleInvestor, RoleAdmin:
		return true
	default:
		return false
	}
}
