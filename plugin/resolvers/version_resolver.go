package resolvers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SemverResolver implements ports.VersionResolver using Masterminds/semver.
// Plugin versions are often not strict semver ("4.0", "2.1.3.1"); the
// lenient parser accepts what it can and the rest is ignored.
type SemverResolver struct{}

// NewSemverResolver creates a new SemverResolver.
func NewSemverResolver() *SemverResolver {
	return &SemverResolver{}
}

// Resolve returns the highest published version satisfying constraint.
// "latest" and "*" select the highest stable release.
func (r *SemverResolver) Resolve(constraint string, available []string) (string, error) {
	constraint = strings.TrimSpace(constraint)
	expr := constraint
	if expr == "latest" || expr == "*" {
		expr = ">= 0"
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return "", fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	var matching semver.Collection
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if c.Check(v) {
			matching = append(matching, v)
		}
	}

	if len(matching) == 0 {
		return "", fmt.Errorf("no published version satisfies %q", constraint)
	}

	sort.Sort(matching)
	return matching[len(matching)-1].Original(), nil
}
