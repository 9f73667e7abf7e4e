package ports

import (
	"context"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// Notifier receives warnings as they happen during a run. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Warn(message string)
}

// ProgressObserver is told when an artifact finishes.
type ProgressObserver interface {
	Start(total int)
	Done(name string)
	Finish()
}

// RunRecorder stores finished runs.
type RunRecorder interface {
	Record(ctx context.Context, report *entities.Report, strict bool) (string, error)
}
