package models

import "time"

// UserRole enumerates the storefront roles.
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleUser      UserRole = "user"
)

// UserStatus enumerates account states.
type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusInactive  UserStatus = "inactive"
	StatusSuspended UserStatus = "suspended"
)

// DateLayout is the calendar-day format used for registration and login
// bookkeeping throughout the stored records.
const DateLayout = "2006-01-02"

// Today renders the current UTC calendar day.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// User is the canonical user entity produced by the normalizer. Mutation
// replaces the whole record; ID is stable across replacements.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	Role             UserRole   `json:"role"`
	Status           UserStatus `json:"status"`
	RegistrationDate string     `json:"registration_date"`
	LastLogin        string     `json:"last_login"`
	AvatarColor      string     `json:"avatar_color"`
	Username         string     `json:"username,omitempty"`
	PasswordHash     string     `json:"-"`
	// Deleting marks an entity with a removal in flight. It is derived
	// per-response and never persisted.
	Deleting bool `json:"deleting,omitempty"`
}

// RawUser is the stored shape of a user record. Every field is optional;
// the normalizer fills defaults.
type RawUser struct {
	ID           string `json:"id,omitempty"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role,omitempty"`
	Status       string `json:"status,omitempty"`
	JoinDate     string `json:"joinDate,omitempty"`
	LastLogin    string `json:"lastLogin,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// UserStats aggregates the live collection.
type UserStats struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Admins      int `json:"admins"`
	TodayLogins int `json:"today_logins"`
}

// ValidRole reports whether the value is a known role.
func ValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// ValidStatus reports whether the value is a known status.
func ValidStatus(s UserStatus) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}
