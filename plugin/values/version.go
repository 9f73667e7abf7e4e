package values

import "strings"

// IsVersionConstraint reports whether v asks for a range of versions rather
// than naming one exactly. "latest" counts as a constraint.
func IsVersionConstraint(v string) bool {
	v = strings.TrimSpace(v)
	if v == "latest" {
		return true
	}
	return strings.ContainsAny(v, "^~<>=*|, ") || strings.HasSuffix(v, ".x")
}
