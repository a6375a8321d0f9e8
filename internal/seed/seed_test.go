package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard/internal/config"
	"scorecard/internal/db"
	"scorecard/internal/engine"
	"scorecard/internal/migrate"
	"scorecard/internal/repo"
	"scorecard/internal/seed"
)

func newEngine(t *testing.T) engine.Engine {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	return engine.New(conn, config.Default(), nil)
}

func TestDemoParses(t *testing.T) {
	ds, err := seed.Parse(seed.Demo())
	require.NoError(t, err)
	assert.Len(t, ds.OrgUnits, 9)
	assert.NotEmpty(t, ds.Goals)
	assert.NotEmpty(t, ds.Progress)
}

func TestLoadDemo(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	res, err := seed.Load(ctx, eng, seed.Demo())
	require.NoError(t, err)
	assert.Equal(t, 9, res.OrgUnits)
	assert.Equal(t, 14, res.Goals)
	assert.Equal(t, 10, res.Objectives)
	assert.Equal(t, 8, res.Alignments)
	assert.Equal(t, 3, res.Progress)

	latest, err := eng.Repo.LatestProgressByProgram(ctx)
	require.NoError(t, err)
	assert.Len(t, latest, 2)

	evts, err := eng.Repo.LatestEvents(ctx, repo.EventFilters{Type: "seed.loaded"})
	require.NoError(t, err)
	assert.Len(t, evts, 1)

	_, err = seed.Load(ctx, eng, seed.Demo())
	assert.ErrorIs(t, err, seed.ErrAlreadySeeded)
}

func TestLoadRejectsForwardReferences(t *testing.T) {
	eng := newEngine(t)
	raw := []byte(`
org_units:
  - {key: child, parent: root, org_level: Department, name: Child}
  - {key: root, org_level: Enterprise, name: Root}
`)
	_, err := seed.Load(context.Background(), eng, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined earlier")

	units, err := eng.Repo.ListOrgUnits(context.Background(), repo.OrgUnitFilters{})
	require.NoError(t, err)
	assert.Empty(t, units, "failed load must roll back")
}

func TestLoadRejectsUnknownLevel(t *testing.T) {
	eng := newEngine(t)
	raw := []byte("org_units:\n  - {key: a, org_level: Galaxy, name: A}\n")
	_, err := seed.Load(context.Background(), eng, raw)
	assert.Error(t, err)
}
