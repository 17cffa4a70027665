package logger

import "strings"

// sensitive query parameters that force full query-string redaction
var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"code",
	"auth",
}

// SanitizeQueryString reports whether a raw query string contains sensitive
// parameters and should be redacted from logs entirely.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

// MaskUsername keeps the first character of a username and masks the rest,
// so audit trails stay correlatable without recording full identifiers.
func MaskUsername(username string) string {
	if len(username) <= 1 {
		return "*"
	}
	return string(username[0]) + strings.Repeat("*", len(username)-1)
}
