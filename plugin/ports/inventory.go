package ports

import (
	"context"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// InventorySource produces the installed-artifact snapshot for a run.
type InventorySource interface {
	Snapshot(ctx context.Context) (*entities.Inventory, error)
}

// InventoryRepository persists inventory snapshots.
type InventoryRepository interface {
	Load(ctx context.Context, path string) (*entities.Inventory, error)
	Save(ctx context.Context, inv *entities.Inventory, path string) error
}

// DirectoryLister enumerates the files below an artifact directory.
type DirectoryLister interface {
	// ListFiles returns regular files below root as sorted, slash-separated
	// paths relative to root.
	ListFiles(ctx context.Context, root string) ([]string, error)
}
