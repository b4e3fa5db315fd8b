// Package users stores user accounts and their role assignment.
package users

import "time"

// Role is the role assigned to a user, if any.
type Role struct {
	ID   int64
	Name string
}

// User represents a user account. Role is nil when no role is assigned.
// Deactivated accounts are kept for audit; IsActive gates every credential
// path.
type User struct {
	ID           int64
	Email        string
	FirstName    string
	LastName     string
	MiddleName   string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	Role         *Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUserParams carries the fields needed to create an account.
type NewUserParams struct {
	Email        string
	FirstName    string
	LastName     string
	MiddleName   string
	PasswordHash string
}

// ProfileUpdate carries the profile fields a user may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Email      *string
	FirstName  *string
	LastName   *string
	MiddleName *string
}
