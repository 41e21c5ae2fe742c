// Command venuery runs the venue ingestion-and-staging service.
//
// Usage:
//
//	venuery serve  --config venuery.yaml
//	venuery ingest --terms "blue mosque,hagia sophia" --category attractions
//
// Credentials can also come from the environment: VENUERY_PLACES_API_KEY,
// VENUERY_CRAWL_CREDENTIAL, VENUERY_STOCK_ACCESS_KEY.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/venuery/venuery/dbopen"
	"github.com/venuery/venuery/ingest"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "venuery",
		Short:         "Venue content ingestion and staging",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(ingestCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, cfg, svc, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			svc.RegisterHTTP(r)

			logger.Info("listening", "addr", cfg.Listen, "db", cfg.DBPath)
			srv := &http.Server{Addr: cfg.Listen, Handler: r}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}
}

func ingestCmd(configPath *string) *cobra.Command {
	var (
		terms      string
		category   string
		images     int
		maxResults int
		kind       string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion job and print the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, svc, cleanup, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := svc.RunJob(cmd.Context(), ingest.JobRequest{
				SearchTerms:   strings.Split(terms, ","),
				Category:      category,
				ImagesPerItem: images,
				MaxResults:    maxResults,
				Kind:          kind,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&terms, "terms", "", "comma-separated search terms (required)")
	cmd.Flags().StringVar(&category, "category", "", "target category")
	cmd.Flags().IntVar(&images, "images", 0, "images per item (default from config)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "cap on processed terms")
	cmd.Flags().StringVar(&kind, "kind", ingest.KindHybrid, "job kind: hybrid or crawl-only")
	cmd.MarkFlagRequired("terms")
	return cmd
}

// setup loads config, opens the database, applies the schema and builds the
// service. The returned cleanup closes the database.
func setup(configPath string) (*slog.Logger, *ingest.Config, *ingest.Service, func(), error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := ingest.DefaultConfig()
	if configPath != "" {
		loaded, err := ingest.LoadConfig(configPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cfg = loaded
	}
	applyEnv(cfg)

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := ingest.ApplySchema(db); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("apply schema: %w", err)
	}

	svc := ingest.NewService(cfg, db, logger)
	return logger, cfg, svc, func() { db.Close() }, nil
}

// applyEnv lets environment variables override file-configured credentials.
func applyEnv(cfg *ingest.Config) {
	if v := os.Getenv("VENUERY_PLACES_API_KEY"); v != "" {
		cfg.Sources.PlacesAPIKey = v
	}
	if v := os.Getenv("VENUERY_CRAWL_CREDENTIAL"); v != "" {
		cfg.Sources.CrawlCredential = v
	}
	if v := os.Getenv("VENUERY_STOCK_ACCESS_KEY"); v != "" {
		cfg.Sources.StockAccessKey = v
	}
}
