package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/hupe1980/automesh/aigen/anthropic"
	aigenopenai "github.com/hupe1980/automesh/aigen/openai"
	"github.com/hupe1980/automesh/config"
	"github.com/hupe1980/automesh/core"
	"github.com/hupe1980/automesh/engine"
	"github.com/hupe1980/automesh/httpapi"
	"github.com/hupe1980/automesh/logging"
	"github.com/hupe1980/automesh/statestore"
	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the automation engine and its HTTP admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	logger := logging.NewSlogLogger(parseLogLevel(cfg.LogLevel), "json", false)

	var store core.StateStore = statestore.NewInMemoryStore()
	if cfg.StatePath != "" {
		store = statestore.NewFileStore(cfg.StatePath, func(o *statestore.FileOptions) {
			o.Logger = logger
		})
	}

	collab := logCollaborators(logger)
	collab.AI = newAIGenerator(cfg.AI)

	e := engine.New(func(o *engine.Options) {
		o.Settings = cfg.Settings()
		o.StateStore = store
		o.Collaborators = collab
		o.Logger = logger
		if cfg.Engine.WebhookTimeoutMillis > 0 {
			o.WebhookTimeout = time.Duration(cfg.Engine.WebhookTimeoutMillis) * time.Millisecond
		}
		o.DisableSeeding = cfg.Engine.DisableSeeding
	})

	handler := httpapi.NewHandler(e, func(o *httpapi.Options) {
		o.Logger = logger
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("admin api listening", "addr", cfg.Listen)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		_ = e.Close()
		return fmt.Errorf("serve: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err)
	}

	return e.Close()
}

// newAIGenerator wires the configured provider, or nil when AI actions are
// not configured.
func newAIGenerator(cfg config.AIConfig) core.AIGenerator {
	switch cfg.Provider {
	case "openai":
		client := openai.NewClient(openaiClientOptions(cfg)...)

		return aigenopenai.NewGeneratorFromClient(&client, func(o *aigenopenai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
	case "anthropic":
		return anthropic.NewGenerator(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}

			o.APIKey = cfg.APIKey
		})
	default:
		return nil
	}
}

func openaiClientOptions(cfg config.AIConfig) []openaiopt.RequestOption {
	if cfg.APIKey == "" {
		return nil
	}

	return []openaiopt.RequestOption{openaiopt.WithAPIKey(cfg.APIKey)}
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}
