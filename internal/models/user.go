package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the identity record. Display data lives in Profile.
type User struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email            string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password         string         `gorm:"not null" json:"-"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}
