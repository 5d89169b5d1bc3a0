package models

import (
	"strings"
	"unicode/utf8"
)

const (
	MinCodeLength = 1
	MaxCodeLength = 50
)

// AccessSessionKey namespaces the client-local access record.
const AccessSessionKey = "reflection_game_access"

// AccessSession is the client-local access grant. AccessGrantedAt is epoch
// milliseconds.
type AccessSession struct {
	HasAccess       bool   `json:"hasAccess"`
	AccessGrantedAt int64  `json:"accessGrantedAt"`
	Code            string `json:"code"`
}

// AccessCode is one registry row. Dates are kept as entered in the registry
// (DD/MM/YYYY HH:MM, UTC-5) and parsed at validation time.
type AccessCode struct {
	Code           string `json:"code"`
	CreatedDate    string `json:"createdDate"`
	ExpirationDate string `json:"expirationDate"`
}

// NormalizeCode is the comparison form of a code: trimmed and uppercased.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type CodeValidationRequest struct {
	Code string `json:"code"`
}

// IsValidCodeLength reports whether code has between MinCodeLength and
// MaxCodeLength characters. Whitespace counts.
func IsValidCodeLength(code string) bool {
	n := utf8.RuneCountInString(code)
	return n >= MinCodeLength && n <= MaxCodeLength
}

type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}
