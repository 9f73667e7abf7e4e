package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// MockManifestFetcher implements ports.ManifestFetcher and ports.VersionCatalog.
// Safe for concurrent use.
type MockManifestFetcher struct {
	Manifests map[string]*entities.Manifest
	Errs      map[string]error
	Err       error
	Versions  []string

	mu       sync.Mutex
	Requests []entities.ManifestRequest
}

func (m *MockManifestFetcher) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err, ok := m.Errs[req.CacheKey()]; ok {
		return nil, err
	}
	if manifest, ok := m.Manifests[req.CacheKey()]; ok {
		return manifest, nil
	}
	return nil, &entities.ManifestNotFoundError{Request: req}
}

func (m *MockManifestFetcher) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if m.Versions == nil {
		return nil, errors.New("no versions")
	}
	return m.Versions, nil
}

// CallCount returns how many fetches were made.
func (m *MockManifestFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockLister implements ports.DirectoryLister
type MockLister struct {
	Files map[string][]string
	Err   error
}

func (m *MockLister) ListFiles(ctx context.Context, root string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	files, ok := m.Files[root]
	if !ok {
		return nil, errors.New("directory not found: " + root)
	}
	return files, nil
}

// MockNotifier implements ports.Notifier
type MockNotifier struct {
	mu       sync.Mutex
	Warnings []string
}

func (m *MockNotifier) Warn(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, message)
}

// Messages returns a copy of the recorded warnings.
func (m *MockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Warnings...)
}

// MockProgress implements ports.ProgressObserver
type MockProgress struct {
	mu       sync.Mutex
	Total     int
	Completed []string
	Finished  bool
}

func (m *MockProgress) Start(total int) { m.Total = total }

func (m *MockProgress) Done(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completed = append(m.Completed, name)
}

func (m *MockProgress) Finish() { m.Finished = true }

// MockRecorder implements ports.RunRecorder
type MockRecorder struct {
	Reports []*entities.Report
	RunID   string
	Err     error
}

func (m *MockRecorder) Record(ctx context.Context, report *entities.Report, strict bool) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.Reports = append(m.Reports, report)
	return m.RunID, nil
}

// MockInventorySource implements ports.InventorySource
type MockInventorySource struct {
	Inventory *entities.Inventory
	Err       error
	Calls     int
}

func (m *MockInventorySource) Snapshot(ctx context.Context) (*entities.Inventory, error) {
	m.Calls++
	return m.Inventory, m.Err
}

func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
