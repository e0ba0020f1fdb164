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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ravnco/userdemo/internal/api"
	"github.com/ravnco/userdemo/internal/config"
	"github.com/ravnco/userdemo/internal/directory"
	"github.com/ravnco/userdemo/internal/logging"
	"github.com/ravnco/userdemo/internal/store"
	"github.com/ravnco/userdemo/internal/usermetrics"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "userdemo",
	Short:   "userdemo - user directory service with live per-dimension metrics",
	Long:    `userdemo is a demo user/company/country directory that exports live user counts and lifecycle counters for a Prometheus-compatible scraper`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("userdemo %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample data",
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(logging.Config{Format: "auto", Level: "info", Component: "userdemo"})

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		s, err := store.New(cfg.DataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		return store.Seed(s)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer() {
	// Baseline defaults so early startup logs are structured.
	logging.Init(logging.Config{
		Format:    "auto",
		Level:     "info",
		Component: "userdemo",
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Re-initialize with configuration-driven settings.
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "userdemo",
	})

	log.Info().Str("version", Version).Msg("Starting userdemo server")

	entityStore, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open entity store")
	}
	defer entityStore.Close()

	if cfg.SeedDemoData {
		if err := store.Seed(entityStore); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed sample data")
		}
	}

	dir := directory.NewCached(entityStore)
	sink := usermetrics.NewPromSink(prometheus.DefaultRegisterer)
	metrics := usermetrics.New(dir, sink)

	// Reconcile runs exactly once, before the API starts accepting
	// traffic.
	users, err := entityStore.ListUsers()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list users for metrics reconciliation")
	}
	metrics.Reconcile(users)

	watcher, err := config.NewWatcher(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher, continuing without live reload")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher, continuing without live reload")
	} else {
		defer watcher.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	apiAddr := fmt.Sprintf("%s:%d", cfg.BackendHost, cfg.BackendPort)
	apiSrv := &http.Server{
		Addr:         apiAddr,
		Handler:      api.NewRouter(cfg, entityStore, dir, metrics, Version),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The scrape endpoint gets its own listener so a slow scraper never
	// holds an API connection slot.
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BackendHost, cfg.MetricsPort)
	scrapeSrv := &http.Server{
		Addr:         metricsAddr,
		Handler:      api.NewMetricsHandler(prometheus.DefaultGatherer),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", apiAddr).Msg("User API listening")
		return serveUntilClosed(apiSrv)
	})
	g.Go(func() error {
		log.Info().Str("addr", metricsAddr).Msg("Scrape endpoint listening")
		return serveUntilClosed(scrapeSrv)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := scrapeSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Scrape endpoint did not shut down cleanly")
		}
		return apiSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}
	log.Info().Msg("Server shut down cleanly")
}

func serveUntilClosed(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
