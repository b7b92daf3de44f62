package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/gearcfg/internal/config"
	"github.com/udisondev/gearcfg/internal/data"
	"github.com/udisondev/gearcfg/internal/db"
	"github.com/udisondev/gearcfg/internal/session"
	"github.com/udisondev/gearcfg/internal/storage"
)

const ConfigPath = "config/equipserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("GEARCFG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadEquipServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("gearcfg equip server starting", "config", cfgPath)
	slog.Info("config loaded", "addr", cfg.Addr(), "storage", cfg.Storage.Driver)

	// Catalog: structural errors are fatal, item problems only warn
	src := data.NewSource(cfg.Catalog.Path, cfg.Catalog.URL, cfg.Catalog.FetchTimeout)
	catalog, err := data.NewLoader(src).LoadConfig(ctx)
	if err != nil {
		var structural *data.StructuralError
		if errors.As(err, &structural) {
			return fmt.Errorf("catalog rejected: %w", err)
		}
		return fmt.Errorf("loading catalog from %s: %w", src, err)
	}

	medium, closeMedium, err := openMedium(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeMedium()

	store := storage.NewStore(medium, storage.WithKey(cfg.Storage.Key))

	srv, err := session.NewServer(catalog, store)
	if err != nil {
		return fmt.Errorf("creating session server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting equip server")
		if err := srv.Run(gctx, cfg.Addr()); err != nil {
			return fmt.Errorf("equip server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// openMedium creates the durable medium selected by cfg.Storage.Driver.
func openMedium(ctx context.Context, cfg config.EquipServer) (storage.Medium, func(), error) {
	noop := func() {}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		slog.Warn("memory storage selected, equipped state is lost on restart")
		return storage.NewMemoryMedium(), noop, nil

	case config.DriverFile:
		m, err := storage.NewFileMedium(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening file storage: %w", err)
		}
		slog.Info("file storage opened", "dir", cfg.Storage.Dir)
		return m, noop, nil

	case config.DriverSQLite:
		m, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		slog.Info("sqlite storage opened", "path", cfg.Storage.SQLitePath)
		return m, func() { _ = m.Close() }, nil

	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		version, err := db.RunMigrations(ctx, cfg.Database.DSN())
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied", "version", version)

		return db.NewRecordRepository(database.Pool()), database.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
