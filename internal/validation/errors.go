package validation

import (
	"sort"
	"strings"
)

const (
	MsgRequired        = "This field is required."
	MsgNull            = "This field may not be null."
	MsgBlank           = "This field may not be blank."
	MsgInvalidString   = "Not a valid string."
	MsgInvalidEmail    = "Enter a valid email address."
	MsgInvalidUsername = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	MsgInvalidIP       = "Enter a valid IPv4 or IPv6 address."
	MsgInvalidURL      = "Enter a valid URL."
	MsgInvalidBoolean  = "Must be a valid boolean."
	MsgInvalidList     = "Expected a list of items but got type \"%s\"."
	MsgInvalidChoice   = "\"%s\" is not a valid choice."
	MsgMaxLength       = "Ensure this field has no more than %d characters."
	MsgInvalidPKType   = "Incorrect type. Expected pk value, received %s."
	MsgPKNotFound      = "Invalid pk \"%d\" - object does not exist."
	MsgInvalidDate     = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

// Errors maps a field name to the messages describing why it was rejected.
type Errors map[string][]string

func (e Errors) Add(field string, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

func (e Errors) Empty() bool {
	return len(e) == 0
}

// Err returns e as an error, or nil when there is nothing to report.
func (e Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e[field], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError builds a single-field error set.
func FieldError(field string, msg string) Errors {
	return Errors{field: {msg}}
}
