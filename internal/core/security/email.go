package security

import "strings"

// NormalizeEmail case-folds an address for uniqueness checks and lookups.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
