package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsManager reports whether the role may manage restaurant resources.
func (r Role) IsManager() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(100);not null" json:"username"`
	UsernameKey  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// NormalizeKey is the case-insensitive form used for unique lookups.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Username = strings.TrimSpace(u.Username)
	u.UsernameKey = NormalizeKey(u.Username)
	u.Email = NormalizeKey(u.Email)
	return nil
}
