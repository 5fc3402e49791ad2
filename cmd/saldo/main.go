package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/backend"
	"saldo/internal/cache"
	"saldo/internal/cli"
	apphttp "saldo/internal/http"
	"saldo/internal/i18n"
	"saldo/internal/ledger"
	"saldo/internal/log"
	appweb "saldo/web"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentApp)
	ctx := context.Background()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	store := ledger.NewStore(result.Store, ledger.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()))
	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load ledger", "error", err)
		os.Exit(1)
	}
	if result.Publisher != nil {
		store.Subscribe(amqp.LedgerSubscriber(result.Publisher, logger.WithComponent(log.ComponentAMQP).Slog()))
	}

	// Localization
	var fetcher i18n.Fetcher = i18n.NewFSFetcher(appweb.LocalesFS)
	if cfg.LocalesBaseURL != "" {
		remote, err := i18n.NewHTTPFetcher(cfg.LocalesBaseURL, cfg.LocaleFetchTimeout)
		if err != nil {
			logger.Error("Invalid locales base URL", "error", err, "url", cfg.LocalesBaseURL)
			os.Exit(1)
		}
		fetcher = remote
	}

	localeCache := cache.NewLRUCache[i18n.Translations](len(cfg.SupportedLanguages)+1, cfg.LocaleCacheTTL)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	caches.Register(localeCache)
	caches.StartCleanup(cfg.LocaleCacheTTL)

	languages := i18n.NewLoader(fetcher, result.Store,
		i18n.WithCache(localeCache),
		i18n.WithLoaderLogger(logger.WithComponent(log.ComponentI18n).Slog()),
		i18n.WithDefaultLanguage(cfg.DefaultLanguage),
		i18n.WithFetchTimeout(cfg.LocaleFetchTimeout),
		i18n.WithSupported(cfg.SupportedLanguages...))

	startupCtx, cancelStartup := context.WithTimeout(ctx, cfg.LocaleFetchTimeout)
	lang := languages.Startup(startupCtx)
	cancelStartup()

	srv, err := apphttp.NewServer(cfg.Addr(), store, languages,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute))
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		caches.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting saldo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"language", lang,
		"notifications", result.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
