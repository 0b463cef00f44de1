package models

import (
	"time"
)

// Account is a CRM user. RefreshToken holds the only refresh token that can
// still be rotated; an empty value means the session was revoked.
type Account struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"size:191;uniqueIndex;not null"`
	Role         string    `json:"role" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	RefreshToken string    `json:"-" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
