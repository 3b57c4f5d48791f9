package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"glassdoor-scraper/config"
	"glassdoor-scraper/models"
	"glassdoor-scraper/scraper/glassdoor"
	"glassdoor-scraper/storage"
	"glassdoor-scraper/utils"
)

// ErrInvalidRequest wraps every validation failure of Submit.
var ErrInvalidRequest = errors.New("invalid request")

// ScrapeRequest is one search to run.
type ScrapeRequest struct {
	JobID         string
	Keywords      string
	Location      string
	Pages         int
	SpreadsheetID string
}

// ClientFactory builds a fresh upstream client for a job.
type ClientFactory func() (*glassdoor.Client, error)

// ScrapeDeps are the collaborators of a ScrapeService. Archive, Sheets and
// Validator are optional.
type ScrapeDeps struct {
	Store     *JobStore
	NewClient ClientFactory
	Exporter  *storage.CSVExporter
	Archive   storage.Sink
	Sheets    storage.Sink
	Validator storage.Validator
	Skills    *SkillMatcher
}

// ScrapeService runs scrape jobs in the background and records their
// progress in a JobStore.
type ScrapeService struct {
	cfg       *config.Config
	logger    *utils.Logger
	store     *JobStore
	pool      *utils.WorkerPool
	newClient ClientFactory
	exporter  *storage.CSVExporter
	archive   storage.Sink
	sheets    storage.Sink
	validator storage.Validator
	skills    *SkillMatcher
	now       func() time.Time
}

func NewScrapeService(cfg *config.Config, logger *utils.Logger, deps ScrapeDeps) *ScrapeService {
	s := &ScrapeService{
		cfg:       cfg,
		logger:    logger,
		store:     deps.Store,
		pool:      utils.NewWorkerPool(cfg.MaxConcurrency, int(cfg.JobStartSpacing.Milliseconds())),
		newClient: deps.NewClient,
		exporter:  deps.Exporter,
		archive:   deps.Archive,
		sheets:    deps.Sheets,
		validator: deps.Validator,
		skills:    deps.Skills,
		now:       time.Now,
	}
	if s.store == nil {
		s.store = NewJobStore(cfg.JobRetention)
	}
	if s.newClient == nil {
		s.newClient = func() (*glassdoor.Client, error) {
			return glassdoor.New(glassdoor.OptionsFromConfig(cfg, logger))
		}
	}
	if s.exporter == nil {
		s.exporter = storage.NewCSVExporter(cfg.ExportDir)
	}
	if s.skills == nil {
		s.skills = NewSkillMatcher(DefaultSkills)
	}
	return s
}

// Submit validates req, registers a pending job and schedules it. It
// returns as soon as the job is queued.
func (s *ScrapeService) Submit(ctx context.Context, req ScrapeRequest) (models.ScrapeJob, error) {
	job, err := s.prepare(ctx, req)
	if err != nil {
		return models.ScrapeJob{}, err
	}

	runCtx := context.WithoutCancel(ctx)
	s.pool.Submit(func() {
		_, _ = s.runJob(runCtx, job)
	})
	s.logger.Info("[runner] Queued job %s: %q in %q, %d pages", job.ID, job.Keywords, job.Location, job.RequestedPages)
	return job, nil
}

// Run executes a job synchronously and returns its final state. The error
// is non-nil when the job failed.
func (s *ScrapeService) Run(ctx context.Context, req ScrapeRequest) (models.ScrapeJob, error) {
	job, err := s.prepare(ctx, req)
	if err != nil {
		return models.ScrapeJob{}, err
	}
	return s.runJob(ctx, job)
}

// Progress returns a snapshot of a job.
func (s *ScrapeService) Progress(id string) (models.ScrapeJob, error) {
	return s.store.Read(id)
}

// Wait blocks until every queued job has finished.
func (s *ScrapeService) Wait() {
	s.pool.Wait()
}

func (s *ScrapeService) prepare(ctx context.Context, req ScrapeRequest) (models.ScrapeJob, error) {
	keywords := strings.TrimSpace(req.Keywords)
	if keywords == "" {
		keywords = s.cfg.DefaultKeywords
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.cfg.DefaultLocation
	}
	pages := req.Pages
	if pages == 0 {
		pages = s.cfg.PagesToScrape
	}
	pages = clampPages(pages, s.cfg.MaxPages)

	sheetID := strings.TrimSpace(req.SpreadsheetID)
	if sheetID != "" {
		if len(sheetID) < storage.MinSpreadsheetIDLength {
			return models.ScrapeJob{}, fmt.Errorf("%w: spreadsheet id %q is too short", ErrInvalidRequest, sheetID)
		}
		if s.sheets == nil || s.validator == nil {
			return models.ScrapeJob{}, fmt.Errorf("%w: google sheets output is not configured", ErrInvalidRequest)
		}
		if err := s.validator.Validate(ctx, sheetID); err != nil {
			return models.ScrapeJob{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	id := strings.TrimSpace(req.JobID)
	if id == "" {
		id = uuid.NewString()
	}

	return s.store.Create(models.ScrapeJob{
		ID:             id,
		Keywords:       keywords,
		Location:       location,
		SpreadsheetID:  sheetID,
		RequestedPages: pages,
		CreatedAt:      s.now(),
	})
}

func clampPages(pages, limit int) int {
	if limit < 1 {
		limit = 1
	}
	switch {
	case pages < 1:
		return 1
	case pages > limit:
		return limit
	}
	return pages
}

// runJob drives one job to a terminal state.
func (s *ScrapeService) runJob(ctx context.Context, job models.ScrapeJob) (models.ScrapeJob, error) {
	start := time.Now()
	_ = s.store.Update(job.ID, 0, 0, models.JobRunning)

	res, err := s.execute(ctx, job)
	if err != nil {
		s.logger.Error("[runner] Job %s failed after %s: %v", job.ID, time.Since(start).Round(time.Millisecond), err)
		_ = s.store.Fail(job.ID, err.Error())
	} else {
		s.logger.Info("[runner] Job %s completed in %s: %s", job.ID, time.Since(start).Round(time.Millisecond), res.Message)
		_ = s.store.Complete(job.ID, res)
	}

	final, _ := s.store.Read(job.ID)
	return final, err
}

func (s *ScrapeService) execute(ctx context.Context, job models.ScrapeJob) (JobResult, error) {
	client, err := s.newClient()
	if err != nil {
		return JobResult{}, fmt.Errorf("create upstream client: %w", err)
	}

	sess, err := client.Acquire(ctx)
	if err != nil {
		return JobResult{}, fmt.Errorf("could not establish a session: %w", err)
	}

	loc, err := client.Resolve(ctx, sess, job.Location)
	if err != nil {
		var notFound *glassdoor.LocationNotFoundError
		if errors.As(err, &notFound) {
			return JobResult{}, fmt.Errorf("location %q not found", notFound.Query)
		}
		return JobResult{}, fmt.Errorf("resolve location %q: %w", job.Location, err)
	}

	normalizer := NewNormalizer(client.BaseURL(), s.skills, s.now)
	pager := client.Search(sess, loc, glassdoor.SearchOptions{Keywords: job.Keywords, MaxPages: job.RequestedPages})

	var (
		rows  []models.CleanRecord
		total PageStats
		pages int
	)
	for pager.Next(ctx) {
		page := pager.Page()
		kept, stats := normalizer.NormalizePage(page.Records)
		rows = append(rows, kept...)
		total.Skipped += stats.Skipped
		total.Duplicates += stats.Duplicates
		pages++

		_ = s.store.Update(job.ID, pages, len(rows), models.JobRunning)
		_ = s.store.Annotate(job.ID, func(j *models.ScrapeJob) {
			j.Dropped = total.Skipped
			j.Duplicates = total.Duplicates
		})
		s.logger.Info("[runner] Job %s page %d/%d: kept %d, dropped %d, duplicates %d",
			job.ID, page.Number, job.RequestedPages, stats.Kept, stats.Skipped, stats.Duplicates)
	}
	if err := pager.Err(); err != nil {
		return JobResult{}, fmt.Errorf("search aborted: %w", err)
	}

	res := JobResult{
		RecordsFound: len(rows),
		Dropped:      total.Skipped,
		Duplicates:   total.Duplicates,
	}
	if sf := pager.Shortfall(); sf != nil {
		res.Shortfall = sf.Error()
	}

	if len(rows) == 0 {
		if res.Shortfall != "" {
			return JobResult{}, fmt.Errorf("no jobs found (%s)", res.Shortfall)
		}
		return JobResult{}, errors.New("no jobs found")
	}

	batch := storage.Batch{
		JobID:         job.ID,
		Keywords:      job.Keywords,
		SpreadsheetID: job.SpreadsheetID,
		Worksheet:     storage.WorksheetName(job.Keywords, s.now()),
		Rows:          rows,
	}

	exported, err := s.exporter.Write(ctx, batch)
	if err != nil {
		return JobResult{}, fmt.Errorf("export csv: %w", err)
	}
	res.ExportPath = exported.Location

	if s.archive != nil {
		if _, err := s.archive.Write(ctx, batch); err != nil {
			s.logger.Warn("[runner] Job %s archive write failed: %v", job.ID, err)
		}
	}

	if job.SpreadsheetID != "" && s.sheets != nil {
		written, err := s.sheets.Write(ctx, batch)
		if err != nil {
			return JobResult{}, fmt.Errorf("write to google sheets: %w", err)
		}
		res.SheetURL = written.Location
		res.Worksheet = written.Worksheet
	}

	res.Message = fmt.Sprintf("collected %d jobs from %d of %d pages", len(rows), pages, job.RequestedPages)
	if res.Shortfall != "" {
		res.Message += "; stopped early: " + res.Shortfall
	}
	return res, nil
}
