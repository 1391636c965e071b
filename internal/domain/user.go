package domain

import "time"

// Role enumerates the identity provider's role claims.
type Role string

const (
	RoleStudent    Role = "student"
	RoleCommittee  Role = "committee"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for anyone who logs in: students filing
// tickets and the committee/admin staff who handle them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	NotifyEmail  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
