package models

import "time"

// User is the identity record: credentials and session state. Everything a
// person can edit about themselves lives on Profile.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}
