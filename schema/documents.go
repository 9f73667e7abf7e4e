package schema

import (
	"github.com/reglet-dev/plugin-checksum/plugin/entities"
	"github.com/reglet-dev/plugin-checksum/plugin/filesystem"
)

// Document kinds known to Default.
const (
	KindReport    = "report"
	KindInventory = "inventory"
	KindFinding   = "finding"
)

// Default returns a registry with every document the tool emits.
func Default() (*Registry, error) {
	r := NewRegistry()
	for kind, model := range map[string]interface{}{
		KindReport:    &entities.Report{},
		KindInventory: &filesystem.InventoryFile{},
		KindFinding:   &entities.Finding{},
	} {
		if err := r.Register(kind, model); err != nil {
			return nil, err
		}
	}
	return r, nil
}
