package registry

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeName derives a wire-level capability name from a human title:
// lowercase, with every run of non-alphanumeric characters collapsed to a
// single hyphen. The function is idempotent, so normalizing an
// already-normalized name is a no-op, and the same function is used at
// registration time and at session-binding time to keep names stable.
func NormalizeName(title string) string {
	name := strings.ToLower(title)
	name = nonAlphanumeric.ReplaceAllString(name, "-")
	return strings.Trim(name, "-")
}
