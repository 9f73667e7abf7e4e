package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	ctx := context.Background()

	report := entities.NewReport([]entities.ArtifactResult{
		{Name: "demo", Outcome: entities.OutcomeFailed, Findings: []entities.Finding{
			{PluginName: "demo", File: "b.php", Message: "File was added"},
			{PluginName: "demo", File: "a.php", Message: "Checksum does not match"},
		}},
		{Name: "clean", Outcome: entities.OutcomeVerified},
	})

	id, err := s.Record(ctx, report, true)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.True(t, run.Strict)
	assert.Equal(t, report.Summary, run.Summary)
	assert.Equal(t, report.Findings, run.Findings)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_RecentNewestFirst(t *testing.T) {
	t.Parallel()

	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		id, err := s.Record(ctx, entities.NewReport(nil), false)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, base.Add(2*time.Minute), runs[0].StartedAt)
	assert.Nil(t, runs[0].Findings)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	id, err := s.Record(ctx, entities.NewReport(nil), false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, run.Findings)
	assert.Equal(t, path, s.Path())
}
