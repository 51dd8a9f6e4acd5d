package validation

import (
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// IsEmail reports whether str, ignoring surrounding spaces, is a bare email address.
func IsEmail(str string) bool {
	return validate.Var(strings.TrimSpace(str), "required,email") == nil
}

// IsHTTPURL reports whether str is an absolute http or https URL.
func IsHTTPURL(str string) bool {
	return validate.Var(str, "required,http_url") == nil
}

// NormalizeIP returns the canonical text form of an IPv4 or IPv6 address.
func NormalizeIP(str string) (string, bool) {
	if validate.Var(str, "required,ip") != nil {
		return "", false
	}
	return net.ParseIP(str).String(), true
}
