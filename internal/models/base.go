package models

import (
	"time"

	"finanzas/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records and pins explicit
// timestamps to UTC so range filters compare like with like.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	if !b.CreatedAt.IsZero() {
		b.CreatedAt = b.CreatedAt.UTC()
	}
	return nil
}
