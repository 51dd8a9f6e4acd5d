package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/khanghh/kcentral/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"carol@example.com", "carol@example.com", true},
		{"  carol@example.com ", "carol@example.com", true},
		{"not-an-email", "", false},
		{"Carol <carol@example.com>", "", false},
		{"carol@", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			form := NewForm(map[string]any{"email": tt.input}, false)
			got, ok := form.Email("email", true, params.EmailMaxLength)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if !tt.ok {
				assert.Equal(t, []string{MsgInvalidEmail}, form.Errors()["email"])
			}
		})
	}
}

func TestFormIPAddress(t *testing.T) {
	tests := []struct {
		input any
		want  *string
		ok    bool
	}{
		{"10.0.0.1", strPtr("10.0.0.1"), true},
		{"2001:DB8::1", strPtr("2001:db8::1"), true},
		{"::ffff:10.0.0.1", strPtr("10.0.0.1"), true},
		{"", nil, true},
		{nil, nil, true},
		{"999.1.1.1", nil, false},
		{"10.0.0.1/24", nil, false},
		{42, nil, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.input), func(t *testing.T) {
			form := NewForm(map[string]any{"address": tt.input}, false)
			got, ok := form.IPAddress("address")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if !tt.ok {
				assert.Equal(t, []string{MsgInvalidIP}, form.Errors()["address"])
			}
		})
	}
}

func TestFormURL(t *testing.T) {
	form := NewForm(map[string]any{
		"plain":  "https://app.example.com/reset?lang=en",
		"blank":  "  ",
		"script": "javascript:alert(document.cookie)",
		"ftp":    "ftp://files.example.com/reset",
		"rel":    "/api/reset/",
	}, false)

	link, ok := form.URL("plain", params.LinkMaxLength)
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com/reset?lang=en", link)

	_, ok = form.URL("blank", params.LinkMaxLength)
	assert.False(t, ok)
	_, ok = form.URL("missing", params.LinkMaxLength)
	assert.False(t, ok)

	for _, field := range []string{"script", "ftp", "rel"} {
		_, ok = form.URL(field, params.LinkMaxLength)
		assert.False(t, ok, field)
	}
	errs := form.Errors()
	assert.NotContains(t, errs, "blank")
	assert.NotContains(t, errs, "missing")
	assert.Equal(t, []string{MsgInvalidURL}, errs["script"])
	assert.Equal(t, []string{MsgInvalidURL}, errs["ftp"])
	assert.Equal(t, []string{MsgInvalidURL}, errs["rel"])
}

func TestValidatePasswordByteLength(t *testing.T) {
	tooLong := fmt.Sprintf(MsgPasswordTooLong, params.PasswordMaxLength)

	// 72 ASCII characters is exactly at the limit
	assert.NotContains(t, ValidatePassword(strings.Repeat("Ab1!", 18)), tooLong)

	multibyte := strings.Repeat("é", 40) + "Xy1!"
	require.Less(t, len([]rune(multibyte)), params.PasswordMaxLength)
	assert.Equal(t, []string{tooLong}, ValidatePassword(multibyte))
}

func strPtr(s string) *string { return &s }
