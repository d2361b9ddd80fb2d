package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/complykit/supascope/internal/adapter/driven/identity"
	sqliteadapter "github.com/complykit/supascope/internal/adapter/driven/sqlite"
	"github.com/complykit/supascope/internal/adapter/driven/supabase"
	httphandler "github.com/complykit/supascope/internal/adapter/driving/http"
	"github.com/complykit/supascope/internal/application"
	"github.com/complykit/supascope/internal/config"
	"github.com/complykit/supascope/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"supabase_api_url", cfg.SupabaseAPIURL,
		"api_keys", len(cfg.APIKeys),
		"encryption", cfg.SecretKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	integrationStore := sqliteadapter.NewIntegrationRepo(db, cfg.SecretKey)
	projectStore := sqliteadapter.NewProjectRepo(db)
	userStore := sqliteadapter.NewUserRepo(db)
	tableStore := sqliteadapter.NewTableRepo(db)
	evidenceStore := sqliteadapter.NewEvidenceRepo(db)
	resolver := identity.NewStaticResolver(cfg.APIKeys)

	// Clients are minted per refresh from the customer's decrypted token.
	newClient := driven.SupabaseClientFactory(func(token string) driven.SupabaseClient {
		if cfg.SupabaseAPIURL != supabase.DefaultBaseURL {
			return supabase.NewClientWithHTTPClient(http.DefaultClient, cfg.SupabaseAPIURL, token)
		}
		return supabase.NewClient(token)
	})

	// 6. Create application services.
	integrationSvc := application.NewIntegrationService(integrationStore, projectStore, userStore, tableStore, newClient)
	evidenceSvc := application.NewEvidenceService(projectStore, userStore, tableStore, evidenceStore)

	// 7. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(integrationSvc, evidenceSvc, projectStore, userStore, tableStore, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, resolver, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("supascope started", "listen_addr", cfg.ListenAddr)

	// 8. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 9. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
