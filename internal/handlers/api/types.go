package api

import (
	"context"
	"time"

	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
)

type UserService interface {
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, scopes ...users.Scope) ([]*model.User, error)
	ValidateUser(ctx context.Context, existing *model.User, in users.UserInput) (validation.Errors, error)
	CreateUser(ctx context.Context, in users.UserInput) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User, in users.UserInput) (*model.User, error)
	DeleteUser(ctx context.Context, userID uint) error
	Authenticate(ctx context.Context, identifier string, password string) (*model.User, error)
	UpdatePassword(ctx context.Context, user *model.User, newPassword string) error
}

type GroupService interface {
	GetGroupByID(ctx context.Context, groupID uint) (*model.Group, error)
	ListGroups(ctx context.Context, scopes ...users.Scope) ([]*model.Group, error)
	ValidateGroup(ctx context.Context, existing *model.Group, in users.GroupInput) (validation.Errors, error)
	CreateGroup(ctx context.Context, in users.GroupInput) (*model.Group, error)
	UpdateGroup(ctx context.Context, group *model.Group, in users.GroupInput) (*model.Group, error)
	DeleteGroup(ctx context.Context, groupID uint) error
}

type PermissionService interface {
	GetPermissionByID(ctx context.Context, permID uint) (*model.Permission, error)
	ListPermissions(ctx context.Context, scopes ...users.Scope) ([]*model.Permission, error)
}

type AgentService interface {
	GetAgentByID(ctx context.Context, agentID uint) (*model.Agent, error)
	ListAgents(ctx context.Context, scopes ...logs.Scope) ([]*model.Agent, error)
	ValidateAgent(ctx context.Context, in logs.AgentInput) (validation.Errors, error)
	CreateAgent(ctx context.Context, in logs.AgentInput) (*model.Agent, error)
	UpdateAgent(ctx context.Context, agent *model.Agent, in logs.AgentInput) (*model.Agent, error)
	DeleteAgent(ctx context.Context, agentID uint) error
}

type EventService interface {
	GetEventByID(ctx context.Context, eventID uint) (*model.Event, error)
	ListEvents(ctx context.Context, scopes ...logs.Scope) ([]*model.Event, error)
	ValidateEvent(ctx context.Context, in logs.EventInput) (validation.Errors, error)
	CreateEvent(ctx context.Context, in logs.EventInput) (*model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event, in logs.EventInput) (*model.Event, error)
	DeleteEvent(ctx context.Context, eventID uint) error
}

type TokenService interface {
	IssueTokenPair(user *model.User) (*auth.TokenPair, error)
	Refresh(refreshToken string) (string, error)
	Verify(tokenStr string) (*auth.Claims, error)
	IssueRecoveryToken(ctx context.Context, user *model.User) (string, error)
	CheckRecoveryToken(ctx context.Context, claims *auth.Claims) error
	ConsumeRecoveryToken(ctx context.Context, claims *auth.Claims) error
	RecoveryTTL() time.Duration
}
