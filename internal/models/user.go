package models

import (
	"time"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Lockout policy applied on failed logins.
const (
	MaxLoginAttempts = 5
	LockoutDuration  = 15 * time.Minute
)

// UserProfile holds optional contact details editable by the user.
type UserProfile struct {
	Phone   string `bson:"phone,omitempty" json:"phone"`
	Address string `bson:"address,omitempty" json:"address"`
}

// User represents a registered account, customer or admin.
type User struct {
	BaseModel      `bson:",inline"`
	Name           string      `bson:"name" json:"name"`
	Email          string      `bson:"email" json:"email"`
	PasswordHash   string      `bson:"password_hash" json:"-"`
	Role           string      `bson:"role" json:"role"`
	Profile        UserProfile `bson:"profile" json:"profile"`
	ProfilePicture string      `bson:"profile_picture,omitempty" json:"profile_picture"`
	IsActive       bool        `bson:"is_active" json:"is_active"`
	LoginAttempts  int         `bson:"login_attempts" json:"-"`
	LockUntil      *time.Time  `bson:"lock_until,omitempty" json:"-"`
}

// IsLocked reports whether the account is currently locked out.
func (u *User) IsLocked() bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin
}

// PasswordResetToken stores a pending forgot-password request.
type PasswordResetToken struct {
	BaseModel `bson:",inline"`
	Email     string     `bson:"email" json:"email"`
	Token     string     `bson:"token" json:"token"`
	Code      string     `bson:"code" json:"-"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	Verified  bool       `bson:"verified" json:"verified"`
	UsedAt    *time.Time `bson:"used_at,omitempty" json:"used_at"`
}
