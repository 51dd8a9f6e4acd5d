package auth

import "errors"

var (
	ErrTokenInvalid     = errors.New("token is invalid")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenType        = errors.New("unexpected token type")
	ErrRecoveryConsumed = errors.New("recovery token already used")
)
