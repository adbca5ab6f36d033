package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCitizen = "CITOYEN"
	RoleAdmin   = "ADMIN"
)

// Profile holds the display identity of a user. Its ID equals User.ID.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Role      string    `gorm:"size:20;not null;default:'CITOYEN'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
