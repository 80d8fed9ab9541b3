package common

import (
	"regexp"
	"strings"
)

var unsafeTargetChars = regexp.MustCompile(`[^a-zA-Z0-9._/-]+`)

// SanitizeTarget makes a target file name safe for use inside a store key.
// Every run of characters other than letters, digits and `._/-` becomes a
// single underscore. Leading slashes are dropped so the key never contains "//".
func SanitizeTarget(target string) string {
	safe := unsafeTargetChars.ReplaceAllString(strings.TrimSpace(target), "_")
	return strings.TrimLeft(safe, "/")
}
