package models

import "time"

// Role is the authorization level of a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Profile holds the personal data of a user. Its ID is the owning user's ID.
type Profile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Phone     string    `json:"phone"`
	Role      Role      `gorm:"not null;default:user" json:"role"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// UserWithProfile is the admin roster row: a profile joined with its email.
type UserWithProfile struct {
	Profile
	Email string `json:"email"`
}
