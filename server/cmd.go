package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/chatflow"
	"github.com/meikuraledutech/chatflow/api"
	"github.com/meikuraledutech/chatflow/config"
	"github.com/meikuraledutech/chatflow/postgres"
	"github.com/meikuraledutech/chatflow/sqlite"
	"github.com/spf13/cobra"
)

var configPath string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatflow",
		Short:        "chatflow: backend for the chatflow canvas editor",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "chatflow.toml", "Path to the TOML config file")

	root.AddCommand(
		serveCmd(),
		schemaCmd(),
		exportCmd(),
	)
	return root
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			defer closeStore()

			canvasOpts := cfg.Canvas.CanvasOptions()
			ttl := cfg.Canvas.TTL()
			sessions := api.NewSessions(func(name string) *chatflow.Editor {
				return chatflow.NewEditor(name, chatflow.NewCanvas(canvasOpts...), chatflow.WithNotificationTTL(ttl))
			})

			app := api.New(sessions, store)
			if store == nil {
				info.Println("  no storage configured: saving flows is disabled")
			}
			good.Printf("  chatflow listening on %s\n", cfg.Server.Addr)
			return app.Listen(cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the saved-flow tables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create the chatflows table",
			RunE: withStore(func(ctx context.Context, s chatflow.Store) error {
				if err := s.CreateSchema(ctx); err != nil {
					return err
				}
				good.Println("  schema created")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop the chatflows table",
			RunE: withStore(func(ctx context.Context, s chatflow.Store) error {
				if err := s.DropSchema(ctx); err != nil {
					return err
				}
				good.Println("  schema dropped")
				return nil
			}),
		},
	)
	return cmd
}

func exportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <flow-id>",
		Short: "Write a saved flow as an export JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, s chatflow.Store) error {
				f, err := s.GetFlow(ctx, args[0])
				if err != nil {
					return err
				}
				if f == nil {
					bad.Printf("  flow %s not found\n", args[0])
					return chatflow.ErrFlowNotFound
				}
				e := chatflow.NewEditor(f.Name, nil)
				e.Load(f)
				path, err := chatflow.WriteExportFile(outDir, e.Export())
				if err != nil {
					return err
				}
				good.Printf("  wrote %s\n", path)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory to write the export into")
	return cmd
}

// withStore opens the configured store for a one-shot command.
func withStore(fn func(ctx context.Context, s chatflow.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		store, closeStore, err := openStore(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		defer closeStore()
		if store == nil {
			bad.Println("  no storage configured: set DATABASE_URL or [storage] in the config")
			return fmt.Errorf("no storage configured")
		}
		return fn(cmd.Context(), store)
	}
}

// openStore connects the configured backend. A blank driver means no
// persistence and returns a nil store.
func openStore(ctx context.Context, cfg config.StorageConfig) (chatflow.Store, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch cfg.Driver {
	case "":
		return nil, func() {}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		return postgres.New(pool), pool.Close, nil
	case "sqlite":
		s, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("close sqlite: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
