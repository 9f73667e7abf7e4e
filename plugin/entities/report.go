package entities

import (
	"fmt"

	"github.com/reglet-dev/plugin-checksum/plugin/values"
)

// Outcome is the per-artifact result of a batch run.
type Outcome int

const (
	OutcomeVerified Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ArtifactResult is what verifying a single artifact produced. Results are
// independent of each other and merged by the batch.
type ArtifactResult struct {
	Skip     error
	Name     string
	Version  string
	Findings []Finding
	Kind     values.ArtifactKind
	Outcome  Outcome
}

// RunSummary counts artifacts by outcome.
type RunSummary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`
}

// Validate checks total == succeeded + failed + skipped.
func (s RunSummary) Validate() error {
	if s.Total != s.Succeeded+s.Failed+s.Skipped {
		return fmt.Errorf("inconsistent summary: total %d != %d succeeded + %d failed + %d skipped",
			s.Total, s.Succeeded, s.Failed, s.Skipped)
	}
	return nil
}

// Report is the outcome of a batch run.
type Report struct {
	RunID    string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Findings []Finding        `json:"findings" yaml:"findings"`
	Results  []ArtifactResult `json:"-" yaml:"-"`
	Summary  RunSummary       `json:"summary" yaml:"summary"`
}

// NewReport merges per-artifact results in order. Failed counts distinct
// artifact names that produced at least one finding.
func NewReport(results []ArtifactResult) *Report {
	r := &Report{Results: results, Findings: []Finding{}}
	failedNames := make(map[string]struct{})

	for _, res := range results {
		r.Summary.Total++
		if res.Outcome == OutcomeSkipped {
			r.Summary.Skipped++
			continue
		}
		for _, f := range res.Findings {
			r.Findings = append(r.Findings, f)
			failedNames[f.PluginName] = struct{}{}
		}
	}

	r.Summary.Failed = len(failedNames)
	r.Summary.Succeeded = r.Summary.Total - r.Summary.Failed - r.Summary.Skipped
	return r
}

// OK reports whether the run found no problems.
func (r *Report) OK() bool {
	return r.Summary.Failed == 0
}
