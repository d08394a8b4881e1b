package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stockroom/internal/audit"
	"stockroom/internal/backup"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/inventory"
	"stockroom/internal/logging"
	"stockroom/internal/store"
	"stockroom/internal/websocket"
)

// app is the wiring every command runs against. It is built once in Before.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *database.DB
	hub       *websocket.Hub
	inventory *inventory.Service
	backups   *backup.Service
}

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	if err := newRootCommand(&app{}).Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "stockroom",
		Usage: "Local inventory management over an embedded SQLite database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file (default stockroom.yaml when present)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path, overrides config"},
			&cli.StringFlag{Name: "actor", Value: "admin", Usage: "username recorded in the action log for product changes"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, a.setup(ctx, cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			a.close()
			return nil
		},
		Commands: []*cli.Command{
			initCommand(a),
			serveCommand(a),
			productsCommand(a),
			categoriesCommand(a),
			usersCommand(a),
			loginCommand(a),
			logsCommand(a),
			backupCommand(a),
			backupsCommand(a),
			restoreCommand(a),
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if p := cmd.String("db"); p != "" {
		cfg.Database.Path = p
	}
	a.cfg = cfg

	log, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.log = log

	db, err := database.Open(cfg.Database.Path, database.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return err
	}
	a.db = db

	// The app cannot run without its tables.
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal("create schema", zap.Error(err), zap.String("path", db.Path()))
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	a.hub = websocket.NewHub(log)
	auditLog := audit.NewLogger(db, log, a.hub)
	a.inventory = inventory.NewService(store.New(db, store.WithLogger(log)), auditLog, a.hub, log)
	a.backups = backup.NewService(db, log)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.log != nil {
			a.log.Warn("close database", zap.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
