package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"scorecard/internal/app"
	"scorecard/internal/config"
	"scorecard/internal/engine"
	"scorecard/internal/mcptools"
	"scorecard/internal/repo"
	"scorecard/internal/seed"
	"scorecard/internal/server"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace database and a default scorecard.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(stdout, "Config already exists at %s (use --force to overwrite)\n", path)
			} else {
				if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Wrote %s\n", path)
			}
			return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
				fmt.Fprintf(stdout, "Workspace ready at %s\n", env.Workspace)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo organization (or a YAML dataset) into an empty workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := seed.Demo()
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				raw = b
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := seed.Load(ctx, e, raw)
				if errors.Is(err, seed.ErrAlreadySeeded) {
					return fmt.Errorf("%w; seed a fresh workspace instead", err)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Fprintf(stdout, "Loaded %d org units, %d goals, %d objectives, %d alignments, %d progress updates\n",
					res.OrgUnits, res.Goals, res.Objectives, res.Alignments, res.Progress)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset (default: built-in demo)")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	keys := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	keys.AddCommand(apiKeyCreateCmd())
	keys.AddCommand(apiKeyListCmd())
	keys.AddCommand(apiKeyRevokeCmd())
	return keys
}

func apiKeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, secret, err := e.CreateAPIKey(ctx, viper.GetString("actor-id"), name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "name": key.Name, "key": secret})
				}
				fmt.Fprintf(stdout, "API key %s for %s\n%s\nStore it now; it cannot be shown again.\n", key.ID, key.ActorID, secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	return cmd
}

func apiKeyListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := viper.GetString("actor-id")
			if all {
				actor = ""
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.APIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := newTable("ID", "Actor", "Name", "Created")
				for _, k := range keys {
					tw.AppendRow([]any{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list keys of every actor")
	return cmd
}

func apiKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				key, err := e.RevokeAPIKey(ctx, args[0], viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(key)
				}
				fmt.Fprintf(stdout, "Revoked %s (%s)\n", key.ID, key.ActorID)
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var f repo.EventFilters
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := newTable("ID", "Time", "Type", "Entity", "Actor")
				for _, evt := range events {
					tw.AppendRow([]any{evt.ID, evt.TS, evt.Type, evt.EntityKind + " " + evt.EntityID, evt.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&f.Limit, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
				if addr == "" {
					addr = env.Config.Server.Addr
				}
				if basePath == "" {
					basePath = env.Config.Server.BasePath
				}
				authCfg := server.AuthConfig{
					Required:         env.Config.Auth.Required,
					AllowActorHeader: env.Config.Auth.AllowActorHeader,
					JWTSecret:        viper.GetString("jwt_secret"),
					Logger:           env.Log,
				}
				if authCfg.JWTSecret == "" {
					if authCfg.Required {
						return fmt.Errorf("SCORECARD_JWT_SECRET is required when auth.required is set")
					}
					env.Log.Warn("SCORECARD_JWT_SECRET not set; bearer tokens and dev login are disabled")
				}
				handler, err := server.New(server.Config{Engine: env.Engine, BasePath: basePath, Auth: authCfg, Log: env.Log})
				if err != nil {
					return err
				}
				server.StartWebhooks(ctx, env.Engine, env.Log)
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
				env.Log.Info("serving scorecard api", zap.String("addr", addr), zap.String("base_path", basePath))
				fmt.Fprintf(stdout, "Serving Scorecard API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default from config)")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve scorecard tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env *app.Env) error {
				actor := viper.GetString("actor-id")
				if !cmd.Flags().Changed("actor-id") && os.Getenv("SCORECARD_ACTOR_ID") == "" {
					actor = mcptools.DefaultActor
				}
				env.Log.Info("serving mcp over stdio", zap.String("actor_id", actor))
				return mcpserver.ServeStdio(mcptools.NewServer(env.Engine, actor))
			})
		},
	}
}
