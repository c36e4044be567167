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

	"github.com/ericfisherdev/breachwatch/internal/adapter/driven/hibp"
	"github.com/ericfisherdev/breachwatch/internal/adapter/driven/smtp"
	sqliteadapter "github.com/ericfisherdev/breachwatch/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/breachwatch/internal/adapter/driving/http"
	"github.com/ericfisherdev/breachwatch/internal/application"
	"github.com/ericfisherdev/breachwatch/internal/config"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
	"github.com/ericfisherdev/breachwatch/internal/secret"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing or malformed key).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"monitor_interval", cfg.MonitorInterval,
		"smtp_configured", cfg.HasSMTP(),
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

	// 4. Run migrations on the writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire driven adapters.
	credStore := sqliteadapter.NewCredentialRepo(db)
	alertStore := sqliteadapter.NewAlertRepo(db)
	userStore := sqliteadapter.NewUserRepo(db)
	sessionStore := sqliteadapter.NewSessionRepo(db)

	codec, err := secret.New(cfg.SecretKey)
	if err != nil {
		return err
	}

	oracle := hibp.NewClient(cfg.HIBPAPIKey)
	if cfg.HIBPAPIKey == "" {
		slog.Info("no hibp api key configured, domain lookups will fail open")
	}

	var notifier driven.Notifier
	if cfg.HasSMTP() {
		notifier = smtp.NewNotifier(smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		slog.Info("smtp notifier configured", "host", cfg.SMTPHost)
	} else {
		slog.Info("no smtp configured, breach alerts will not be mailed")
	}

	// 6. Wire application services.
	breachSvc := application.NewBreachService(credStore, alertStore, oracle, notifier, codec, cfg.NotifyEmail)
	authSvc := application.NewAuthService(userStore, sessionStore, cfg.SessionTTL)
	vaultSvc := application.NewVaultService(credStore, alertStore, codec, breachSvc)
	monitorSvc := application.NewMonitorService(credStore, breachSvc, authSvc, cfg.MonitorInterval, cfg.CheckDelay)

	// 7. Start the periodic monitor loop.
	go monitorSvc.Start(ctx)

	// 8. Create the HTTP handler and server.
	apiHandler := httphandler.NewHandler(authSvc, vaultSvc, monitorSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("breachwatch started",
		"listen_addr", cfg.ListenAddr,
		"monitor_interval", cfg.MonitorInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with a 10s drain timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
