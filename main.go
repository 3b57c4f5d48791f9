package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"glassdoor-scraper/config"
	"glassdoor-scraper/services"
	"glassdoor-scraper/storage"
	"glassdoor-scraper/utils"
)

var rootCmd = &cobra.Command{
	Use:   "glassdoor-scraper",
	Short: "glassdoor-scraper collects Glassdoor job listings into CSV, PostgreSQL and Google Sheets.",
}

func main() {
	rootCmd.AddCommand(serveCmd, scrapeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	svc     *services.ScrapeService
	archive *storage.PostgresWriter
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.LogLevel)

	logger.Info("=== Glassdoor Scraping System starting ===")
	logger.Info("Config: pages %d (max %d) | concurrency %d | rate %dms | retries %d",
		cfg.PagesToScrape, cfg.MaxPages, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries)

	a := &app{cfg: cfg, logger: logger}
	deps := services.ScrapeDeps{
		Store:    services.NewJobStore(cfg.JobRetention),
		Exporter: storage.NewCSVExporter(cfg.ExportDir),
	}

	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			return nil, err
		}
		a.archive = pg
		deps.Archive = pg
		logger.Info("Archiving cleaned jobs to PostgreSQL (table: job_listings)")
	}

	if cfg.SheetsEnabled() {
		creds, err := storage.LoadSheetsCredentials(cfg.SheetsCredentials, cfg.SheetsCredentialsFile)
		if err != nil {
			logger.Warn("Google Sheets disabled: %v", err)
		} else {
			sw, err := storage.NewSheetsWriter(ctx, logger,
				option.WithCredentialsJSON(creds),
				option.WithScopes(sheets.SpreadsheetsScope),
			)
			if err != nil {
				logger.Warn("Google Sheets disabled: %v", err)
			} else {
				deps.Sheets = sw
				deps.Validator = sw
				logger.Info("Google Sheets output enabled")
			}
		}
	}

	a.svc = services.NewScrapeService(cfg, logger, deps)
	return a, nil
}

func (a *app) Close() {
	if a.archive != nil {
		_ = a.archive.Close()
	}
}
