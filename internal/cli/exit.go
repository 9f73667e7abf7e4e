package cli

import (
	"errors"
	"fmt"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError carries a process exit code. Silent errors have already been
// reported to the user.
type ExitError struct {
	Err    error
	Code   int
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code for a command error.
func (e *ExitError) ExitCode() int {
	return e.Code
}

func usageError(err error) error {
	return &ExitError{Err: err, Code: ExitUsage}
}

// errVerificationFailed is returned after the failing summary is printed.
var errVerificationFailed = &ExitError{Err: errors.New("verification failed"), Code: ExitFailure, Silent: true}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	if errors.Is(err, entities.ErrNoArtifactsSpecified) {
		return ExitUsage
	}
	return ExitFailure
}

// IsSilent reports whether err was already shown to the user.
func IsSilent(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee) && ee.Silent
}
