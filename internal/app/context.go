package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scorecard/internal/config"
	"scorecard/internal/db"
	"scorecard/internal/engine"
	"scorecard/internal/migrate"
)

// Env is everything a command needs to talk to one workspace.
type Env struct {
	Workspace string
	DB        *sql.DB
	Config    *config.Config
	Engine    engine.Engine
	Log       *zap.Logger
}

type Options struct {
	// ConfigPath overrides <workspace>/scorecard.yml.
	ConfigPath string
	// LogLevel overrides config.log.level when set.
	LogLevel string
}

// Open loads config, opens and migrates the workspace database and builds an
// engine over it.
func Open(ctx context.Context, workspace string, opts Options) (*Env, error) {
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.FromFile(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(workspace)
	}
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	log, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	applied, err := migrate.Apply(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	for _, m := range applied {
		log.Info("schema migrated", zap.Int("version", m.Version), zap.String("file", m.Name))
	}
	log.Debug("workspace opened", zap.String("db", db.Path(workspace)))
	return &Env{
		Workspace: workspace,
		DB:        conn,
		Config:    cfg,
		Engine:    engine.New(conn, cfg, log),
		Log:       log,
	}, nil
}

func (e *Env) Close() error {
	_ = e.Log.Sync()
	return e.DB.Close()
}

// NewLogger builds a zap logger writing to stderr, so stdout stays free for
// command output and the MCP stdio transport.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
