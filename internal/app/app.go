// Package app wires configuration, persistence and services for the server
// and the ledgerctl CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chainledger/internal/auth"
	"github.com/rpggio/chainledger/internal/config"
	"github.com/rpggio/chainledger/internal/domain/activity"
	"github.com/rpggio/chainledger/internal/domain/period"
	"github.com/rpggio/chainledger/internal/domain/store"
	"github.com/rpggio/chainledger/internal/mcp"
	"github.com/rpggio/chainledger/internal/metrics"
	"github.com/rpggio/chainledger/internal/postgres"
	"github.com/rpggio/chainledger/internal/sqlite"
	"github.com/rpggio/chainledger/internal/transport"
)

// Version is reported by the MCP server.
var Version = "dev"

// backend is the set of repositories one database driver provides.
type backend struct {
	periods    period.Repository
	stores     store.Repository
	activities activity.Repository
	keys       auth.KeyStore
	migrate    func(ctx context.Context) error
	close      func() error
}

// App holds the wired services.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Stores   *store.Service
	Ledger   *period.Ledger
	Activity *activity.Service
	Resolver *auth.Resolver
	Metrics  *metrics.Recorder
	Handler  *mcp.Handler

	backend backend
}

// New opens the configured database and builds the services. Extra ledger
// options are applied after the configured limits.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...period.Option) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limits, err := cfg.Ledger.Limits()
	if err != nil {
		return nil, err
	}

	b, err := openBackend(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	storeSvc := store.NewService(b.stores, b.activities, logger)
	activitySvc := activity.NewService(b.activities, logger)
	ledgerOpts := append([]period.Option{
		period.WithLimits(limits),
		period.WithMetrics(recorder),
	}, opts...)
	ledger := period.NewLedger(b.periods, storeSvc, b.activities, logger, ledgerOpts...)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Stores:   storeSvc,
		Ledger:   ledger,
		Activity: activitySvc,
		Resolver: auth.NewResolver(b.keys),
		Metrics:  recorder,
		Handler:  mcp.NewHandler(storeSvc, ledger, activitySvc),
		backend:  b,
	}, nil
}

func openBackend(ctx context.Context, cfg config.DBConfig) (backend, error) {
	switch cfg.Driver {
	case "sqlite", "":
		if err := ensureDBDir(cfg.Path); err != nil {
			return backend{}, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return backend{}, err
		}
		return backend{
			periods:    sqlite.NewPeriodRepository(db),
			stores:     sqlite.NewStoreRepository(db),
			activities: sqlite.NewActivityRepository(db),
			keys:       sqlite.NewAPIKeyRepository(db),
			migrate:    func(context.Context) error { return db.RunMigrations() },
			close:      db.Close,
		}, nil
	case "postgres":
		pg := cfg.Postgres
		db, err := postgres.Open(ctx, postgres.Config{
			DSN:      pg.DSN,
			Endpoint: pg.Endpoint,
			Port:     pg.Port,
			User:     pg.User,
			Name:     pg.Name,
			Region:   pg.Region,
			Profile:  pg.Profile,
			SSLMode:  pg.SSLMode,
		})
		if err != nil {
			return backend{}, err
		}
		return backend{
			periods:    postgres.NewPeriodRepository(db),
			stores:     postgres.NewStoreRepository(db),
			activities: postgres.NewActivityRepository(db),
			keys:       postgres.NewAPIKeyRepository(db),
			migrate:    db.RunMigrations,
			close:      db.Close,
		}, nil
	default:
		return backend{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or upgrades the schema.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.backend.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.backend.close == nil {
		return nil
	}
	return a.backend.close()
}

// MCPServer builds the MCP server over the app's handler.
func (a *App) MCPServer() *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Handler:       a.Handler,
		Resolver:      a.Resolver,
		AuthEnabled:   a.Config.Auth.Enabled,
		DefaultTenant: a.Config.Auth.DefaultTenant,
		TransportMode: a.Config.Transport.Mode,
		Version:       Version,
		Logger:        a.Logger,
	})
}

// HTTPHandler serves /rpc, /mcp, /health and /metrics. mcpHandler may be nil.
func (a *App) HTTPHandler(mcpHandler http.Handler) http.Handler {
	opts := transport.Options{
		Handler:            a.Handler,
		DefaultTenant:      a.Config.Auth.DefaultTenant,
		RateLimitPerMinute: a.Config.Server.RateLimitPerMinute,
		Metrics:            a.Metrics.Handler(),
		MCP:                mcpHandler,
		Observer:           a.Metrics,
		Logger:             a.Logger,
	}
	if a.Config.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(a.Resolver)
	}
	return transport.NewServer(opts)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || filepath.Dir(path) == "." {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}
