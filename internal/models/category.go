package models

// Category groups a user's transactions. Names are not unique per user.
type Category struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
	Emoji  string `gorm:"not null" json:"emoji"`
}
