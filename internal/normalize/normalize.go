package normalize

import "strings"

// Username returns the canonical form of a username used for storage and
// comparisons. Usernames are case-sensitive; only surrounding whitespace is
// dropped.
func Username(u string) string {
	return strings.TrimSpace(u)
}

// Field trims surrounding whitespace from a free-form profile field so that a
// value made only of spaces counts as missing.
func Field(s string) string {
	return strings.TrimSpace(s)
}
