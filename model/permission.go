package model

import "fmt"

type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceUser       Resource = "user"
	ResourceAgent      Resource = "agent"
	ResourceEvent      Resource = "event"
	ResourceGroup      Resource = "group"
	ResourcePermission Resource = "permission"
)

var (
	Actions   = []Action{ActionView, ActionAdd, ActionChange, ActionDelete}
	Resources = []Resource{ResourceUser, ResourceAgent, ResourceEvent, ResourceGroup, ResourcePermission}
)

func PermissionCodename(action Action, resource Resource) string {
	return fmt.Sprintf("%s_%s", action, resource)
}

// Permission grants one action on one resource type.
type Permission struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"size:255;not null"`
	Codename    string `gorm:"uniqueIndex:idx_permission_codename;size:100;not null"`
	ContentType string `gorm:"size:100;not null"`
}

// Group is a named set of permissions assignable to users.
type Group struct {
	ID          uint         `gorm:"primarykey"`
	Name        string       `gorm:"uniqueIndex:idx_group_name;size:150;not null"`
	Permissions []Permission `gorm:"many2many:group_permissions;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
