// Package userutil derives per-user names for kernel objects such as the
// control pipe and the instance mutex.
package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var invalidUsernameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// lookupCurrentUser is replaced in tests.
var lookupCurrentUser = user.Current

// SanitizeUsername keeps [A-Za-z0-9._-] and replaces every other run of
// characters with "_". Empty input becomes "unknown".
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidUsernameRune.ReplaceAllString(value, "_")
}

// CurrentUsername returns %USERNAME%, falling back to the OS account name.
// The result is not sanitized.
func CurrentUsername() string {
	if name := strings.TrimSpace(os.Getenv("USERNAME")); name != "" {
		return name
	}
	if current, err := lookupCurrentUser(); err == nil {
		return current.Username
	}
	return ""
}

// ScopedName appends the sanitized current username to prefix.
func ScopedName(prefix string) string {
	return prefix + SanitizeUsername(CurrentUsername())
}
