package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cast"
)

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// Form reads and checks fields of a decoded JSON body. In partial mode fields
// that are absent are skipped instead of reported as required.
type Form struct {
	data    map[string]any
	partial bool
	errs    Errors
}

func NewForm(data map[string]any, partial bool) *Form {
	if data == nil {
		data = map[string]any{}
	}
	return &Form{data: data, partial: partial, errs: Errors{}}
}

func (f *Form) Errors() Errors {
	return f.errs
}

func (f *Form) Has(field string) bool {
	_, ok := f.data[field]
	return ok
}

// lookup returns the raw value and whether the caller should go on with it.
func (f *Form) lookup(field string, required bool) (any, bool) {
	val, ok := f.data[field]
	if !ok {
		if required && !f.partial {
			f.errs.Add(field, MsgRequired)
		}
		return nil, false
	}
	return val, true
}

func typeName(val any) string {
	switch val.(type) {
	case bool:
		return "bool"
	case json.Number, float64, int, int64:
		return "int"
	case string:
		return "str"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	case nil:
		return "NoneType"
	}
	return fmt.Sprintf("%T", val)
}

func toText(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}

// String reads a text field. Required text fields may not be blank.
func (f *Form) String(field string, required bool, maxLen int) (string, bool) {
	val, ok := f.lookup(field, required)
	if !ok {
		return "", false
	}
	if val == nil {
		f.errs.Add(field, MsgNull)
		return "", false
	}
	str, ok := toText(val)
	if !ok {
		f.errs.Add(field, MsgInvalidString)
		return "", false
	}
	if required && strings.TrimSpace(str) == "" {
		f.errs.Add(field, MsgBlank)
		return "", false
	}
	if maxLen > 0 && utf8.RuneCountInString(str) > maxLen {
		f.errs.Add(field, fmt.Sprintf(MsgMaxLength, maxLen))
		return "", false
	}
	return str, true
}

func (f *Form) Email(field string, required bool, maxLen int) (string, bool) {
	str, ok := f.String(field, required, maxLen)
	if !ok {
		return "", false
	}
	if !IsEmail(str) {
		f.errs.Add(field, MsgInvalidEmail)
		return "", false
	}
	return strings.TrimSpace(str), true
}

// URL reads an optional absolute http(s) URL, blank counts as absent.
func (f *Form) URL(field string, maxLen int) (string, bool) {
	str, ok := f.String(field, false, maxLen)
	if !ok {
		return "", false
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return "", false
	}
	if !IsHTTPURL(str) {
		f.errs.Add(field, MsgInvalidURL)
		return "", false
	}
	return str, true
}

// Username reads a text field limited to letters, digits and @.+-_
func (f *Form) Username(field string, required bool, maxLen int) (string, bool) {
	str, ok := f.String(field, required, maxLen)
	if !ok {
		return "", false
	}
	if !IsUsername(str) {
		f.errs.Add(field, MsgInvalidUsername)
		return "", false
	}
	return str, true
}

func (f *Form) Choice(field string, required bool, choices []string) (string, bool) {
	val, ok := f.lookup(field, required)
	if !ok {
		return "", false
	}
	if val == nil {
		f.errs.Add(field, MsgNull)
		return "", false
	}
	str, ok := toText(val)
	if !ok {
		str = fmt.Sprintf("%v", val)
	}
	for _, choice := range choices {
		if str == choice {
			return str, true
		}
	}
	f.errs.Add(field, fmt.Sprintf(MsgInvalidChoice, str))
	return "", false
}

// IPAddress reads a nullable IPv4/IPv6 address, an empty string counts as null.
func (f *Form) IPAddress(field string) (*string, bool) {
	val, ok := f.lookup(field, false)
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	str, ok := val.(string)
	if !ok {
		f.errs.Add(field, MsgInvalidIP)
		return nil, false
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, true
	}
	normalized, ok := NormalizeIP(str)
	if !ok {
		f.errs.Add(field, MsgInvalidIP)
		return nil, false
	}
	return &normalized, true
}

func (f *Form) Bool(field string) (bool, bool) {
	val, ok := f.lookup(field, false)
	if !ok {
		return false, false
	}
	b, ok := ParseBool(val)
	if !ok {
		f.errs.Add(field, MsgInvalidBoolean)
		return false, false
	}
	return b, true
}

// DateTime reads a nullable timestamp.
func (f *Form) DateTime(field string) (*time.Time, bool) {
	val, ok := f.lookup(field, false)
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	str, ok := val.(string)
	if !ok {
		f.errs.Add(field, MsgInvalidDate)
		return nil, false
	}
	t, err := ParseDateTime(str)
	if err != nil {
		f.errs.Add(field, MsgInvalidDate)
		return nil, false
	}
	return &t, true
}

// PrimaryKey reads a nullable reference to another row. Existence is checked
// by the caller.
func (f *Form) PrimaryKey(field string) (*uint, bool) {
	val, ok := f.lookup(field, false)
	if !ok {
		return nil, false
	}
	if val == nil {
		return nil, true
	}
	id, ok := toID(val)
	if !ok {
		f.errs.Add(field, fmt.Sprintf(MsgInvalidPKType, typeName(val)))
		return nil, false
	}
	return &id, true
}

func (f *Form) PrimaryKeys(field string) ([]uint, bool) {
	val, ok := f.lookup(field, false)
	if !ok {
		return nil, false
	}
	items, ok := val.([]any)
	if !ok {
		f.errs.Add(field, fmt.Sprintf(MsgInvalidList, typeName(val)))
		return nil, false
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		id, ok := toID(item)
		if !ok {
			f.errs.Add(field, fmt.Sprintf(MsgInvalidPKType, typeName(item)))
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func toID(val any) (uint, bool) {
	switch v := val.(type) {
	case json.Number:
		return toID(v.String())
	case string, float64, int:
		id, err := cast.ToUintE(v)
		if err != nil || id == 0 {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// ParseID parses a positive decimal row id from a path or query parameter.
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func IsUsername(str string) bool {
	if str == "" {
		return false
	}
	for _, r := range str {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}

// ParseBool accepts JSON booleans as well as the usual textual spellings.
func ParseBool(val any) (bool, bool) {
	switch v := val.(type) {
	case bool:
		return v, true
	case json.Number:
		return ParseBool(v.String())
	case string:
		b, err := cast.ToBoolE(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func ParseDateTime(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, str)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
