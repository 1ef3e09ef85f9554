package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gradfinder.dev/gradfinder/internal/api"
	"gradfinder.dev/gradfinder/internal/config"
	"gradfinder.dev/gradfinder/internal/core"
	"gradfinder.dev/gradfinder/internal/llm"
	"gradfinder.dev/gradfinder/internal/logger"
	"gradfinder.dev/gradfinder/internal/store"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        store.ProgramStore
	completer llm.Completer
	search    *core.SearchService
	summary   *core.SummaryService
	catalog   *core.CatalogService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogLevel == "DEBUG" {
		log.Debug("Service starting in DEBUG mode")
	}

	db, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	completer, err := llm.New(ctx, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize AI client: %w", err)
	}
	if !completer.Configured() {
		log.Warn("AI_API_KEY is not set; search and summary requests will fail with a configuration error")
	}

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		completer: completer,
		search:    core.NewSearchService(db, completer, log),
		summary:   core.NewSummaryService(db, completer, log),
		catalog:   core.NewCatalogService(db),
	}, nil
}

func (a *app) Close() {
	if c, ok := a.completer.(interface{ Close() }); ok {
		c.Close()
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn("Error closing database", "error", err)
	}
	a.log.Sync()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gradfinder",
		Short:         "Find graduate programs with AI-assisted research",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Run one program search and print the stored programs as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd, func(ctx context.Context, a *app) (any, error) {
					return a.search.Search(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "summarize <program-id>",
			Short: "Generate the AI summary for one stored program and print it as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd, func(ctx context.Context, a *app) (any, error) {
					return a.summary.Generate(ctx, args[0])
				})
			},
		},
	)
	return root
}

func runOnce(cmd *cobra.Command, fn func(context.Context, *app) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := fn(ctx, a)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	apiHandler := api.NewAPIHandler(a.search, a.summary, a.catalog, a.log)
	router := api.NewRouter(apiHandler, a.log)

	serverAddr := fmt.Sprintf(":%s", a.cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Search waits on one full LLM completion
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Starting server. Press Ctrl+C to quit.", "addr", serverAddr, "ai_provider", a.cfg.AIProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err, ok := <-serverErr:
		if ok && err != nil {
			return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
	}
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("Server exiting gracefully")
	return nil
}
