package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"glassdoor-scraper/models"
	"glassdoor-scraper/services"
	"glassdoor-scraper/storage"
)

var scrapeFlags struct {
	keywords string
	location string
	pages    int
	sheet    string
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Runs one search synchronously and prints an insights report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		job, err := a.svc.Run(ctx, services.ScrapeRequest{
			Keywords:      scrapeFlags.keywords,
			Location:      scrapeFlags.location,
			Pages:         scrapeFlags.pages,
			SpreadsheetID: scrapeFlags.sheet,
		})
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}

		records := loadRecords(ctx, a, job)
		insights := services.NewInsightService(a.logger)
		insights.Print(os.Stdout, insights.Generate(records))

		fmt.Printf("  Done. %s\n  CSV export -> %s\n", job.Message, job.ExportPath)
		if job.SheetURL != "" {
			fmt.Printf("  Google Sheet -> %s\n", job.SheetURL)
		}
		fmt.Println()
		return nil
	},
}

// loadRecords prefers the full PostgreSQL archive, falling back to the
// job's own export.
func loadRecords(ctx context.Context, a *app, job models.ScrapeJob) []models.CleanRecord {
	if a.archive != nil {
		records, err := a.archive.FetchAll(ctx)
		if err == nil && len(records) > 0 {
			return records
		}
		if err != nil {
			a.logger.Error("Failed to fetch jobs from DB for insights: %v", err)
		}
	}
	records, err := storage.ReadCSV(job.ExportPath)
	if err != nil {
		a.logger.Error("Failed to read export for insights: %v", err)
	}
	return records
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVarP(&scrapeFlags.keywords, "keywords", "k", "", "search keywords (default from DEFAULT_KEYWORDS)")
	f.StringVarP(&scrapeFlags.location, "location", "l", "", "search location (default from DEFAULT_LOCATION)")
	f.IntVarP(&scrapeFlags.pages, "pages", "p", 0, "result pages to fetch, 1-10 (default from PAGES_TO_SCRAPE)")
	f.StringVar(&scrapeFlags.sheet, "sheet", "", "Google Sheets spreadsheet id to write to")
}
