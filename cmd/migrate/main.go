package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/config"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/demo"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/infrastructure/persistence/postgres"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

const defaultMigrationDir = "internal/infrastructure/persistence/postgres/migrations"

func main() {
	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "manage the orders database schema",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		upCommand(),
		downCommand(),
		versionCommand(),
		createCommand(),
		seedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMigrator() (*migrate.Migrate, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return postgres.NewMigrator(cfg.DB.MigrateURL())
}

func upCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					fmt.Println("No change in migration")
					return nil
				}
				return err
			}
			fmt.Println("Migrated up")
			return nil
		},
	}
}

func downCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down [n]",
		Short: "roll back n migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("n must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Steps(-steps); err != nil {
				return err
			}
			fmt.Printf("Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMigrator()
			if err != nil {
				return err
			}
			defer m.Close()

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("No migration applied")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
}

func createCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "create empty up/down sql scripts with the next sequence number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := nextVersion(dir)
			if err != nil {
				return err
			}
			base := fmt.Sprintf("%06d_%s", next, args[0])
			up := filepath.Join(dir, base+".up.sql")
			down := filepath.Join(dir, base+".down.sql")

			if err := os.WriteFile(up, []byte{}, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0o644); err != nil {
				return err
			}
			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationDir, "migration directory")
	return cmd
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "upsert the demo catalog (products and promotions)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.NewZapLogger(cfg.App.Env, "xt-fashion-migrate")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := postgres.NewPool(ctx, cfg.DB, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Seed(ctx, pool, demo.Products(), demo.Promotions(time.Now())); err != nil {
				return err
			}
			log.Info("demo catalog seeded")
			return nil
		},
	}
}

// nextVersion trả về số thứ tự lớn nhất trong dir cộng 1.
func nextVersion(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read migration dir: %w", err)
	}
	highest := 0
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(prefix); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}
