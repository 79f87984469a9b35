package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Roles lists every role a user can hold, lowest privilege first.
var Roles = []string{RoleUser, RoleModerator, RoleAdmin}

type User struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username         string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName        string    `gorm:"size:150;not null;default:''" json:"first_name"`
	LastName         string    `gorm:"size:150;not null;default:''" json:"last_name"`
	Bio              *string   `gorm:"size:1000" json:"bio"`
	Role             string    `gorm:"size:16;default:'user';not null" json:"role"`
	IsSuperuser      bool      `gorm:"not null;default:false" json:"-"`
	ConfirmationCode *string   `gorm:"size:200" json:"-"` // never serialized
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

func (User) TableName() string {
	return "users"
}

func (user *User) IsModerator() bool {
	return user.Role == RoleModerator
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

// HasAdminRights reports whether the user may act as an administrator,
// either through the admin role or the superuser flag.
func (user *User) HasAdminRights() bool {
	return user.IsAdmin() || user.IsSuperuser
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
