package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Nuvio/internal/api"
	"github.com/soaringjerry/Nuvio/internal/assistant"
	"github.com/soaringjerry/Nuvio/internal/config"
	dbstore "github.com/soaringjerry/Nuvio/internal/db"
	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/middleware"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "nuvio-server",
		Short:         "Nuvio wellbeing API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("NUVIO_CONFIG"), "path to a YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "nuvio-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logCloser, err := logger.Init(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log := logger.L()

	if cfg.UsesDevSecret() {
		log.Warn("using the built-in development JWT secret; set NUVIO_JWT_SECRET in production")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	replier, err := assistant.FromConfig(ctx, cfg.Assistant)
	if err != nil {
		return err
	}

	auth := middleware.NewAuth(cfg.Auth.JWTSecret)
	svc := api.NewServices(store, auth.SignToken, cfg.Auth.TokenTTL, replier, cfg.Insights.WindowDays, cfg.Location())

	commit := os.Getenv("NUVIO_COMMIT")
	buildTime := os.Getenv("NUVIO_BUILD_TIME")

	mux := http.NewServeMux()
	api.NewRouter(svc, log).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Nuvio API",
			"store":      cfg.Store.Engine,
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	if cfg.Server.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	var handler http.Handler = auth.WithAuth(mux)
	handler = middleware.RequestLog(log)(handler)
	handler = middleware.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.NoStore(handler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("Nuvio server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured record store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (api.Store, func(), error) {
	switch cfg.Store.Engine {
	case "sqlite":
		sc := cfg.Store
		if err := MigrateIfNeeded(ctx, sc.SnapshotPath, sc.SQLiteDriver, sc.SQLitePath, sc.MigrationsDir); err != nil {
			return nil, nil, fmt.Errorf("legacy migration: %w", err)
		}
		sqlDB, err := dbstore.Open(sc.SQLiteDriver, sc.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := dbstore.RunMigrations(ctx, sqlDB, sc.MigrationsDir); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		store, err := dbstore.NewSQLiteStore(sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return store, closeWithLog(store, "sqlite store"), nil
	default:
		store, err := api.NewMemoryStoreFromPath(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load snapshot: %w", err)
		}
		return store, func() {}, nil
	}
}

func closeWithLog(c io.Closer, what string) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.L().WithError(err).Warnf("failed to close %s", what)
		}
	}
}
