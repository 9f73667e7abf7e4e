package services

import (
	"errors"
	"path/filepath"
	"sort"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// Reconciler compares an artifact's local files with its manifest.
type Reconciler struct {
	matcher *ChecksumMatcher
}

// NewReconciler creates a reconciler using matcher for content checks.
func NewReconciler(matcher *ChecksumMatcher) *Reconciler {
	if matcher == nil {
		matcher = NewChecksumMatcher()
	}
	return &Reconciler{matcher: matcher}
}

// Reconcile classifies every manifest and local path. Manifest paths absent
// locally come first, then local paths, each in lexicographic order. With
// strict off, soft-change files present in both sets produce no result at all.
// Local paths are relative to baseDir.
func (r *Reconciler) Reconcile(baseDir string, manifest *entities.Manifest, localFiles []string, strict bool) []entities.FileResult {
	local := make(map[string]struct{}, len(localFiles))
	sortedLocal := make([]string, 0, len(localFiles))
	for _, f := range localFiles {
		if _, dup := local[f]; dup {
			continue
		}
		local[f] = struct{}{}
		sortedLocal = append(sortedLocal, f)
	}
	sort.Strings(sortedLocal)

	var results []entities.FileResult

	for _, p := range manifest.Paths() {
		if _, ok := local[p]; !ok {
			results = append(results, entities.FileResult{Path: p, Verdict: entities.VerdictMissing})
		}
	}

	for _, p := range sortedLocal {
		set, ok := manifest.Lookup(p)
		if !ok {
			results = append(results, entities.FileResult{Path: p, Verdict: entities.VerdictAdded})
			continue
		}
		if !strict && IsSoftChange(p) {
			continue
		}

		match, err := r.matcher.Match(filepath.Join(baseDir, filepath.FromSlash(p)), set)
		results = append(results, entities.FileResult{Path: p, Verdict: verdictFor(match, err)})
	}

	return results
}

func verdictFor(match MatchResult, err error) entities.FileVerdict {
	if errors.Is(err, entities.ErrLocalRead) {
		return entities.VerdictUnreadable
	}
	switch match {
	case MatchOK:
		return entities.VerdictUnchanged
	case MatchNoAlgorithm:
		return entities.VerdictMissingAlgorithm
	default:
		return entities.VerdictModified
	}
}
