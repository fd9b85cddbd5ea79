package models

import (
	"strings"
	"time"
)

// Roles a user can hold. Exactly one per user.
const (
	RoleMACOfficer    = "MAC_OFFICER"
	RoleMICATReviewer = "MICAT_REVIEWER"
	RoleAdmin         = "ADMIN"
)

type User struct {
	UserID    uint       `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username  string     `gorm:"column:username;unique" json:"username"`
	FirstName string     `gorm:"column:first_name" json:"first_name"`
	LastName  string     `gorm:"column:last_name" json:"last_name"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	Phone     string     `gorm:"column:phone" json:"phone"`
	Password  string     `gorm:"column:password" json:"-"`
	Role      string     `gorm:"column:role" json:"role"`
	MACID     *uint      `gorm:"column:mac_id" json:"mac_id,omitempty"`
	IsActive  bool       `gorm:"column:is_active" json:"is_active"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	// Relations
	MAC *MAC `gorm:"foreignKey:MACID" json:"mac,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// FullName returns "First Last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsMACOfficer() bool {
	return u.Role == RoleMACOfficer
}

func (u *User) IsMICATReviewer() bool {
	return u.Role == RoleMICATReviewer
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the defined roles.
func ValidRole(role string) bool {
	switch role {
	case RoleMACOfficer, RoleMICATReviewer, RoleAdmin:
		return true
	}
	return false
}
