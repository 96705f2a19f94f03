package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stelagent/agent"
	"stelagent/config"
	"stelagent/events"
	"stelagent/fallback"
	"stelagent/llm"
	"stelagent/logger"
	"stelagent/server"
	"stelagent/tools"

	"github.com/spf13/cobra"
)

var (
	flagAddr     string
	flagBackend  string
	flagLogLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stela-agent",
		Short: "Tool-augmented chat service for NuSkin affiliate data",
		Long: `stela-agent serves a conversational endpoint that answers affiliate
questions by orchestrating a completion service with live data tools
backed by the affiliate REST API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides STELA_ADDR)")
	rootCmd.Flags().StringVar(&flagBackend, "backend-url", "", "Backend data API base URL (overrides STELA_BACKEND_URL)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides STELA_LOG_LEVEL)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagBackend != "" {
		cfg.BackendURL = flagBackend
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	provider, err := llm.ValidateProvider(cfg.Provider)
	if err != nil {
		return fmt.Errorf("invalid provider %q: %w", cfg.Provider, err)
	}

	model, err := llm.New(llm.Config{
		Provider:       provider,
		ModelID:        cfg.ModelID,
		Temperature:    cfg.Temperature,
		FallbackModels: cfg.FallbackModels,
		MaxRetries:     cfg.MaxRetries,
		Logger:         log,
		Context:        context.Background(),
	})
	if err != nil {
		return err
	}

	emitter := events.NewEmitter()
	emitter.AddListener(events.NewLogListener(log))

	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(tools.ExecutorConfig{
		Registry: registry,
		BaseURL:  cfg.BackendURL,
		Client:   &http.Client{},
		Timeout:  cfg.ToolTimeout,
		Logger:   log,
	})

	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Model:       model,
		Registry:    registry,
		Executor:    executor,
		Emitter:     emitter,
		Logger:      log,
		MaxRounds:   cfg.MaxRounds,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	fb := fallback.New(fallback.Config{
		BackendURL: cfg.BackendURL,
		Emitter:    emitter,
		Logger:     log,
	})

	srv := server.New(server.Config{
		Addr:         cfg.Addr,
		Orchestrator: orchestrator,
		Fallback:     fb,
		Registry:     registry,
		Emitter:      emitter,
		Logger:       log,
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("stela-agent starting",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.BackendURL),
			logger.String("provider", string(provider)),
			logger.Int("tools", registry.Len()))
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-shutdown:
		log.Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
