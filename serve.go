package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/diagnostic-api/aiscorer"
	"github.com/giygas/diagnostic-api/config"
	"github.com/giygas/diagnostic-api/data"
	"github.com/giygas/diagnostic-api/diagnostic"
	"github.com/giygas/diagnostic-api/handlers"
	"github.com/giygas/diagnostic-api/health"
	"github.com/giygas/diagnostic-api/knowledgebase"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/scheduler"
	"github.com/giygas/diagnostic-api/server"
	"github.com/giygas/diagnostic-api/store"
	"github.com/giygas/diagnostic-api/validation"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				config.LoadDotEnv(envFile)
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before .env")
	return cmd
}

func runServe(ctx context.Context) error {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.InitLoggerWithOptions(logging.Options{
		Dir:            cfg.LogDir,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})
	defer logging.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())
	validator := validation.NewDataValidator()
	repository := knowledgebase.NewRepository(cfg.KnowledgeBasePath)

	opts := diagnostic.DefaultOptions()
	opts.CacheSize = cfg.DiagnosticCacheSize
	engine, err := diagnostic.NewEngine(dataContainer, opts)
	if err != nil {
		return err
	}

	reloader := scheduler.NewScheduler(dataContainer, repository, validator, cfg.KBReloadInterval)
	reloader.OnReload(func(version uint64) {
		engine.Purge()
		logging.Info("Knowledge base published", "version", version)
	})
	if err := reloader.Start(); err != nil {
		return err
	}
	defer reloader.Stop()

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	scorer := aiscorer.NewAdapter(completer, cfg.AITimeout)

	records, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open records store: %w", err)
	}
	defer func() {
		if err := records.Close(); err != nil {
			logging.Error("Failed to close records store", "error", err)
		}
	}()

	sessions := server.NewSessionStore(cfg.SessionTTL)

	handler := handlers.NewHTTPHandler(handlers.Dependencies{
		DataStore: dataContainer,
		Validator: validator,
		Engine:    engine,
		Scorer:    scorer,
		Records:   records,
		Writer:    repository,
		Sessions:  sessions,
		Health:    health.NewHealthChecker(dataContainer, records, cfg.KBReloadInterval),
		OnKnowledgeBaseChange: func(version uint64) {
			engine.Purge()
		},
	})

	srv := server.NewServer(cfg, handler, sessions)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logging.Info("Diagnostic API ready",
		"env", cfg.Env,
		"store", cfg.StoreBackend,
		"ai_provider", cfg.AIProvider,
		"admin_enabled", cfg.AdminToken != "")

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.Info("Server exited gracefully")
	return nil
}

// newCompleter returns the configured external scorer, or nil for local-only scoring.
func newCompleter(ctx context.Context, cfg *config.Config) (aiscorer.Completer, error) {
	switch cfg.AIProvider {
	case config.AIProviderOpenAI:
		client := &http.Client{Timeout: cfg.AITimeout}
		return aiscorer.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, client), nil
	case config.AIProviderGemini:
		completer, err := aiscorer.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return completer, nil
	default:
		return nil, nil
	}
}
