// Package scheduler submits a fixed set of searches on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"glassdoor-scraper/models"
	"glassdoor-scraper/services"
	"glassdoor-scraper/utils"
)

// Submitter queues a scrape job.
type Submitter interface {
	Submit(ctx context.Context, req services.ScrapeRequest) (models.ScrapeJob, error)
}

// Scheduler wraps robfig/cron and submits every configured search per tick.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	searches []services.ScrapeRequest
	runner   Submitter
	logger   *utils.Logger
}

// New creates a Scheduler firing on spec, a standard cron expression or a
// descriptor such as "@every 6h".
func New(spec string, searches []services.ScrapeRequest, runner Submitter, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		spec:     spec,
		searches: searches,
		runner:   runner,
		logger:   logger,
	}
}

// Start registers the tick and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.searches) == 0 {
		return fmt.Errorf("scheduler: no searches configured")
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("[scheduler] Cron started, spec %q, %d search(es)", s.spec, len(s.searches))
	return nil
}

// Stop halts the cron loop and waits for a running tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("[scheduler] Cron stopped")
}

// RunOnce submits every configured search.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, req := range s.searches {
		job, err := s.runner.Submit(ctx, req)
		if err != nil {
			s.logger.Warn("[scheduler] Could not submit %q in %q: %v", req.Keywords, req.Location, err)
			continue
		}
		s.logger.Info("[scheduler] Submitted job %s for %q", job.ID, job.Keywords)
	}
}

// ParseSearches reads "keywords|location|pages|spreadsheet_id" entries
// separated by ";". Trailing fields may be omitted.
func ParseSearches(raw string) ([]services.ScrapeRequest, error) {
	var out []services.ScrapeRequest
	for i, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, "|")
		if len(fields) > 4 {
			return nil, fmt.Errorf("scheduler: search %d: too many fields", i+1)
		}
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}

		req := services.ScrapeRequest{
			Keywords:      fields[0],
			Location:      fields[1],
			SpreadsheetID: fields[3],
		}
		if fields[2] != "" {
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("scheduler: search %d: invalid pages %q", i+1, fields[2])
			}
			req.Pages = n
		}
		out = append(out, req)
	}
	return out, nil
}
