package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TokenPurposeRecovery     = "recovery"
	TokenPurposeConfirmation = "confirmation"
)

// OneTimeToken backs emailed links (password recovery, email confirmation).
// Only the SHA-256 of the raw token is stored.
type OneTimeToken struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Purpose   string     `gorm:"size:20;not null" json:"purpose"`
	TokenHash string     `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (OneTimeToken) TableName() string {
	return "one_time_tokens"
}
