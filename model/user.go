package model

import (
	"time"
)

const (
	IdxUserUsername = "idx_user_username"
	IdxUserEmail    = "idx_user_email"
	IdxGroupName    = "idx_group_name"
)

// User stores account information and credentials
type User struct {
	ID          uint         `gorm:"primarykey"`
	Username    string       `gorm:"uniqueIndex:idx_user_username;size:150;not null"`
	Email       string       `gorm:"uniqueIndex:idx_user_email;size:254;not null"`
	Password    string       `gorm:"size:128;not null"`
	FirstName   string       `gorm:"size:150;not null"`
	LastName    string       `gorm:"size:150;not null"`
	IsActive    bool         `gorm:"not null"`
	IsStaff     bool         `gorm:"not null"`
	IsSuperuser bool         `gorm:"not null"`
	LastLogin   *time.Time
	DateJoined  time.Time    `gorm:"autoCreateTime"`
	Groups      []Group      `gorm:"many2many:user_groups;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Permissions []Permission `gorm:"many2many:user_permissions;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// DisplayName is how the user is shown on records they collected.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

const (
	ColUserUsername    = "username"
	ColUserEmail       = "email"
	ColUserPassword    = "password"
	ColUserFirstName   = "first_name"
	ColUserLastName    = "last_name"
	ColUserIsActive    = "is_active"
	ColUserIsStaff     = "is_staff"
	ColUserIsSuperuser = "is_superuser"
	ColUserLastLogin   = "last_login"
)

// PermissionCodes returns the effective permission set of the user: direct
// permissions plus those of every group. Groups and permissions must be
// preloaded.
func (u *User) PermissionCodes() map[string]struct{} {
	codes := make(map[string]struct{})
	for _, perm := range u.Permissions {
		codes[perm.Codename] = struct{}{}
	}
	for _, group := range u.Groups {
		for _, perm := range group.Permissions {
			codes[perm.Codename] = struct{}{}
		}
	}
	return codes
}
