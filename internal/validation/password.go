package validation

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/khanghh/kcentral/params"
)

const (
	MsgPasswordTooShort = "This password is too short. It must contain at least %d characters."
	MsgPasswordCommon   = "This password is too common."
	MsgPasswordNumeric  = "This password is entirely numeric."
	MsgPasswordSimilar  = "The password is too similar to the %s."
	MsgPasswordTooLong  = "This password is too long. It must contain at most %d bytes."
)

//go:embed common_passwords.txt
var commonPasswordsList string

var (
	commonPasswords     map[string]struct{}
	commonPasswordsOnce sync.Once
)

func loadCommonPasswords() {
	commonPasswords = make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(commonPasswordsList))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		commonPasswords[strings.ToLower(line)] = struct{}{}
	}
}

func isCommonPassword(password string) bool {
	commonPasswordsOnce.Do(loadCommonPasswords)
	_, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]
	return ok
}

func isNumeric(password string) bool {
	if password == "" {
		return false
	}
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// UserAttribute is a piece of account data the password must not resemble.
type UserAttribute struct {
	Name  string
	Value string
}

// ValidatePassword returns every strength rule the password breaks.
func ValidatePassword(password string, attrs ...UserAttribute) []string {
	var msgs []string
	lowered := strings.ToLower(password)
	for _, attr := range attrs {
		value := strings.ToLower(attr.Value)
		if attr.Name == "email" {
			value, _, _ = strings.Cut(value, "@")
		}
		if len(value) < params.PasswordMaxSimilarityLen {
			continue
		}
		if strings.Contains(lowered, value) {
			msgs = append(msgs, fmt.Sprintf(MsgPasswordSimilar, attr.Name))
			break
		}
	}
	if len([]rune(password)) < params.PasswordMinLength {
		msgs = append(msgs, fmt.Sprintf(MsgPasswordTooShort, params.PasswordMinLength))
	}
	// bcrypt counts bytes, not characters
	if len(password) > params.PasswordMaxLength {
		msgs = append(msgs, fmt.Sprintf(MsgPasswordTooLong, params.PasswordMaxLength))
	}
	if isCommonPassword(password) {
		msgs = append(msgs, MsgPasswordCommon)
	}
	if isNumeric(password) {
		msgs = append(msgs, MsgPasswordNumeric)
	}
	return msgs
}
