package api

import (
	"time"

	"github.com/khanghh/kcentral/model"
)

type UserResponse struct {
	ID              uint       `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	IsActive        bool       `json:"is_active"`
	IsStaff         bool       `json:"is_staff"`
	IsSuperuser     bool       `json:"is_superuser"`
	Groups          []uint     `json:"groups"`
	UserPermissions []uint     `json:"user_permissions"`
	LastLogin       *time.Time `json:"last_login"`
	DateJoined      time.Time  `json:"date_joined"`
}

type GroupResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Permissions []uint `json:"permissions"`
}

type PermissionResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Codename    string `json:"codename"`
	ContentType string `json:"content_type"`
}

type AgentResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Environment string  `json:"environment"`
	User        *uint   `json:"user"`
	Address     *string `json:"address"`
}

type EventResponse struct {
	ID          uint       `json:"id"`
	Level       string     `json:"level"`
	Description string     `json:"description"`
	Details     string     `json:"details"`
	Datetime    *time.Time `json:"datetime"`
	Archived    bool       `json:"archived"`
	Agent       *uint      `json:"agent"`
	User        *uint      `json:"user"`
	Source      *string    `json:"source"`
	CollectedBy *string    `json:"collected_by"`
}

func permissionIDs(perms []model.Permission) []uint {
	ids := make([]uint, 0, len(perms))
	for _, perm := range perms {
		ids = append(ids, perm.ID)
	}
	return ids
}

func serializeUser(user *model.User) UserResponse {
	groupIDs := make([]uint, 0, len(user.Groups))
	for _, group := range user.Groups {
		groupIDs = append(groupIDs, group.ID)
	}
	return UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		IsActive:        user.IsActive,
		IsStaff:         user.IsStaff,
		IsSuperuser:     user.IsSuperuser,
		Groups:          groupIDs,
		UserPermissions: permissionIDs(user.Permissions),
		LastLogin:       user.LastLogin,
		DateJoined:      user.DateJoined,
	}
}

func serializeGroup(group *model.Group) GroupResponse {
	return GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Permissions: permissionIDs(group.Permissions),
	}
}

func serializePermission(perm *model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:          perm.ID,
		Name:        perm.Name,
		Codename:    perm.Codename,
		ContentType: perm.ContentType,
	}
}

func serializeAgent(agent *model.Agent) AgentResponse {
	return AgentResponse{
		ID:          agent.ID,
		Name:        agent.Name,
		Environment: agent.Environment,
		User:        agent.UserID,
		Address:     agent.Address,
	}
}

func serializeEvent(event *model.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		Level:       event.Level,
		Description: event.Description,
		Details:     event.Details,
		Datetime:    event.Datetime,
		Archived:    event.Archived,
		Agent:       event.AgentID,
		User:        event.UserID,
		Source:      event.Source(),
		CollectedBy: event.CollectedBy(),
	}
}

func serializeList[T any, R any](items []*T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
