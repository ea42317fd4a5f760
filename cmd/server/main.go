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

	"github.com/contextman/contextman/internal/agent"
	"github.com/contextman/contextman/internal/browser"
	"github.com/contextman/contextman/internal/config"
	"github.com/contextman/contextman/internal/extract"
	"github.com/contextman/contextman/internal/llm"
	"github.com/contextman/contextman/internal/server"
)

const defaultConfigFile = "contextman.yaml"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	configPath := os.Getenv("CONTEXTMAN_CONFIG")
	if configPath == "" {
		configPath = defaultConfigFile
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	client, err := llm.NewClient(cfg.GroqAPIKey, cfg.Model, cfg.MaxPromptBytes)
	if err != nil {
		logger.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	extractor := agent.NewExtractor(
		client,
		extract.NewConverter(),
		logger,
		cfg.AgentMaxSteps,
		browser.Options{ExecPath: cfg.BrowserExecPath},
	)

	if cfg.BrowserExecPath == "" && !browser.Available() {
		logger.Warn("no Chromium-based browser found on PATH, /parse will fail until one is installed")
	}

	srv := server.New(cfg, logger, extractor, client)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Write timeout must cover a full extraction run.
		WriteTimeout: cfg.ExtractTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ContextMAN server",
			"addr", cfg.ListenAddr, "model", cfg.Model)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
