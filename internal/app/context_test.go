package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorecard/internal/config"
	"scorecard/internal/engine"
)

func TestOpenCreatesWorkspace(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")
	env, err := Open(context.Background(), dir, Options{LogLevel: "error"})
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, 2026, env.Config.Scorecard.DefaultYear)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
	forest, err := env.Engine.OrgTree(context.Background(), engine.OrgTreeOptions{})
	require.NoError(t, err)
	assert.Empty(t, forest)
}

func TestOpenUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("scorecard:\n  default_year: 2030\n"), 0o644))
	env, err := Open(context.Background(), dir, Options{ConfigPath: path})
	require.NoError(t, err)
	defer env.Close()
	assert.Equal(t, 2030, env.Config.Scorecard.DefaultYear)
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "debug", Development: true})
	assert.NoError(t, err)
	_, err = NewLogger(config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}
