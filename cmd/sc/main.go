package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"scorecard/internal/app"
	"scorecard/internal/db"
	"scorecard/internal/engine"
)

var rootCmd = &cobra.Command{
	Use:   "sc",
	Short: "Scorecard CLI",
	Long: `Scorecard tracks strategic goals across an organization.
Core concepts:
- Org units: the organization tree (Enterprise > Business_Unit > Function > Department > ...).
- Goals: a second tree (Pillar > Category > Goal > Program); every goal is owned by an org unit.
- Alignments: extra links between goals (primary, secondary, cross_cutting).
- Programs: leaf goals with quarterly objectives and versioned progress updates.
- RAG: Red/Amber/Green status on each progress update; the worst status wins when rolling up to pillars.
- Workspace: the .scorecard directory holding the database, plus an optional scorecard.yml.
- Event log: every change is recorded, view with 'sc log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SCORECARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier recorded on events")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/scorecard.yml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	for _, name := range []string{"workspace", "json", "actor-id", "config", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(orgCmd())
	rootCmd.AddCommand(goalCmd())
	rootCmd.AddCommand(alignmentsCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(objectivesCmd())
	rootCmd.AddCommand(scorecardCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(outputsCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
}

// --- helpers ---

func openEnv(ctx context.Context) (*app.Env, error) {
	return app.Open(ctx, viper.GetString("workspace"), app.Options{
		ConfigPath: viper.GetString("config"),
		LogLevel:   viper.GetString("log-level"),
	})
}

func withEnv(ctx context.Context, fn func(context.Context, *app.Env) error) error {
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	return withEnv(ctx, func(ctx context.Context, env *app.Env) error {
		return fn(ctx, env.Engine)
	})
}
