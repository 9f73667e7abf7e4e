package report

import (
	"fmt"
	"strings"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// SummaryLine renders the batch result the way the command line reports
// it, e.g. "Verified 3 of 4 plugins (1 skipped)." failed is true when the
// line describes a failing run.
func SummaryLine(s entities.RunSummary) (line string, failed bool) {
	const (
		noun   = "plugin"
		plural = "plugins"
		verb   = "verified"
	)

	if s.Failed > 0 {
		detail := fmt.Sprintf(" (%d failed", s.Failed)
		if s.Skipped > 0 {
			detail += fmt.Sprintf(", %d skipped", s.Skipped)
		}
		detail += ")"

		if s.Succeeded > 0 {
			return fmt.Sprintf("Only %s %d of %d %s%s.", verb, s.Succeeded, s.Total, plural, detail), true
		}
		return fmt.Sprintf("No %s %s%s.", plural, verb, detail), true
	}

	skipped := ""
	if s.Skipped > 0 {
		skipped = fmt.Sprintf(" (%d skipped)", s.Skipped)
	}
	if s.Succeeded > 0 || s.Skipped > 0 {
		return fmt.Sprintf("%s %d of %d %s%s.", capitalize(verb), s.Succeeded, s.Total, plural, skipped), false
	}

	subject := noun
	if s.Total > 1 {
		subject = plural
	}
	return fmt.Sprintf("%s already %s.", capitalize(subject), verb), false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
