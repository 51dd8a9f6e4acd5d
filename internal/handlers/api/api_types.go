package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	MsgNotAuthenticated  = "Authentication credentials were not provided."
	MsgTokenNotValid     = "Given token not valid for any token type"
	MsgTokenInvalidOrExp = "Token is invalid or expired"
	MsgUserNotFound      = "User not found"
	MsgUserInactive      = "User is inactive"
	MsgNoActiveAccount   = "No active account found with the given credentials"
	MsgPermissionDenied  = "You do not have permission to perform this action."
	MsgNotFound          = "Not found."
	MsgMethodNotAllowed  = "Method \"%s\" not allowed."
	MsgRouteNotFound     = "Not Found (404)"
	MsgJSONParseError    = "JSON parse error"
	MsgUnexpectedError   = "Unable to process the request."
	MsgRecoverEmailSent  = "An email will be sent if the address is valid"
	MsgPasswordChanged   = "Password changed successfully"
	MsgTooManyRequests   = "Request was throttled."
)

// Error is a client facing failure rendered as {"detail": "..."}.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

func NewError(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

var (
	ErrNotAuthenticated = NewError(fiber.StatusUnauthorized, MsgNotAuthenticated)
	ErrTokenNotValid    = NewError(fiber.StatusUnauthorized, MsgTokenNotValid)
	ErrUserNotFound     = NewError(fiber.StatusUnauthorized, MsgUserNotFound)
	ErrUserInactive     = NewError(fiber.StatusUnauthorized, MsgUserInactive)
	ErrNoActiveAccount  = NewError(fiber.StatusUnauthorized, MsgNoActiveAccount)
	ErrRefreshInvalid   = NewError(fiber.StatusUnauthorized, MsgTokenInvalidOrExp)
	ErrPermissionDenied = NewError(fiber.StatusForbidden, MsgPermissionDenied)
	ErrNotFound         = NewError(fiber.StatusNotFound, MsgNotFound)
	ErrJSONParse        = NewError(fiber.StatusBadRequest, MsgJSONParseError)
)

func ErrMethodNotAllowed(method string) *Error {
	return NewError(fiber.StatusMethodNotAllowed, fmt.Sprintf(MsgMethodNotAllowed, method))
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

type RouteErrorResponse struct {
	Error string `json:"error"`
}
