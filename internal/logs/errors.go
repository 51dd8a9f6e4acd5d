package logs

import "errors"

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrEventNotFound = errors.New("event not found")
)
