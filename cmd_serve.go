package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"glassdoor-scraper/api"
	"glassdoor-scraper/scheduler"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and, when SCHEDULE is set, recurring searches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Schedule != "" {
			searches, err := scheduler.ParseSearches(a.cfg.ScheduledSearches)
			if err != nil {
				return err
			}
			sched := scheduler.New(a.cfg.Schedule, searches, a.svc, a.logger)
			if err := sched.Start(context.WithoutCancel(ctx)); err != nil {
				return err
			}
			defer sched.Stop()
		}

		port := servePort
		if port == "" {
			port = a.cfg.HTTPPort
		}
		srv := api.NewServer(a.svc, a.logger)
		err = srv.ListenAndServe(ctx, ":"+port)

		a.logger.Info("Waiting for running jobs to finish...")
		a.svc.Wait()
		a.logger.Info("Stopped.")
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", os.Getenv("PORT"), "port to listen on (default from PORT or 5000)")
}
