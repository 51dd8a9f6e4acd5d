package users

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
	ErrGroupNotFound      = errors.New("group not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailRegisterd     = errors.New("email is already registered")
	ErrGroupNameTaken     = errors.New("group name is already taken")
)

const (
	MsgUsernameTaken  = "A user with that username already exists."
	MsgEmailRegistred = "user with this email already exists."
	MsgGroupNameTaken = "group with this name already exists."
)
