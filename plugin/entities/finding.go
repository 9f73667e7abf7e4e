package entities

import "fmt"

// FileVerdict classifies one file after reconciliation.
type FileVerdict int

const (
	VerdictUnchanged FileVerdict = iota
	VerdictModified
	VerdictAdded
	VerdictMissing
	VerdictMissingAlgorithm
	VerdictUnreadable
)

func (v FileVerdict) String() string {
	switch v {
	case VerdictUnchanged:
		return "unchanged"
	case VerdictModified:
		return "modified"
	case VerdictAdded:
		return "added"
	case VerdictMissing:
		return "missing"
	case VerdictMissingAlgorithm:
		return "missing-algorithm"
	case VerdictUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("FileVerdict(%d)", int(v))
	}
}

// Message is the operator-facing text for a non-clean verdict.
func (v FileVerdict) Message() string {
	switch v {
	case VerdictUnchanged:
		return ""
	case VerdictModified:
		return "Checksum does not match"
	case VerdictAdded:
		return "File was added"
	case VerdictMissing:
		return "File is missing"
	case VerdictMissingAlgorithm:
		return "No matching checksum algorithm found"
	case VerdictUnreadable:
		return "File could not be read"
	default:
		return v.String()
	}
}

// FileResult is the reconciler's verdict for one relative path.
type FileResult struct {
	Path    string
	Verdict FileVerdict
}

// Clean reports whether the file needs no attention.
func (r FileResult) Clean() bool {
	return r.Verdict == VerdictUnchanged
}

// Finding is one reported verification problem.
type Finding struct {
	PluginName string `json:"plugin_name" yaml:"plugin_name" jsonschema:"description=Slug of the plugin the file belongs to"`
	File       string `json:"file" yaml:"file" jsonschema:"description=Path relative to the plugin directory"`
	Message    string `json:"message" yaml:"message" jsonschema:"description=What is wrong with the file"`
}

// NewFinding turns a file result into a finding for the named artifact.
func NewFinding(artifact string, r FileResult) Finding {
	return Finding{PluginName: artifact, File: r.Path, Message: r.Verdict.Message()}
}
