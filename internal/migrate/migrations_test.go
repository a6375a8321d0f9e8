package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard/internal/db"
)

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()

	first, err := Apply(ctx, conn)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, first[0].Version)

	again, err := Apply(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, again)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, len(first), n)
	for _, table := range []string{"org_units", "goal_items", "goal_alignments", "progress_updates", "program_objectives", "events", "api_keys", "skill_outputs"} {
		var name string
		err := conn.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestEmbeddedOrder(t *testing.T) {
	all, err := embedded()
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Version, all[i].Version)
	}
}
