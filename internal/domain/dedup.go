package domain

import "strings"

// normalizeDedupText mirrors the lowercased_stripped(text) rule used by
// both entity and relationship identity keys.
func normalizeDedupText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
