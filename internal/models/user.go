package models

import "time"

// User is one person. Primary users sign up themselves (email + password +
// verified phone); partner users are created by the primary during
// onboarding and carry only a phone and a name until they claim the
// account. CoupleID stays nil until onboarding completes.
type User struct {
	ID           int64     `json:"id"`
	Email        *string   `json:"email"`
	PasswordHash *string   `json:"-"`
	Phone        string    `json:"phone"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CoupleID     *int64    `json:"couple_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	RolePrimary = "primary"
	RolePartner = "partner"
)
