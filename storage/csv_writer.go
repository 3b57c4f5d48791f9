package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"glassdoor-scraper/models"
)

// CSVWriter writes cleaned records to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	rows   int
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends records in order.
func (c *CSVWriter) WriteRecords(records []models.CleanRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		if err := c.writer.Write(Row(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
		c.rows++
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Rows returns the number of data rows written.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// CSVExporter is a Sink producing one downloadable CSV per job.
type CSVExporter struct {
	Dir string
}

// NewCSVExporter exports into dir.
func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{Dir: dir}
}

// Path returns the export file for a job.
func (e *CSVExporter) Path(keywords, jobID string) string {
	return filepath.Join(e.Dir, fmt.Sprintf("%s_jobs_%s.csv", slug(keywords), jobID))
}

func (e *CSVExporter) Write(_ context.Context, batch Batch) (Result, error) {
	path := e.Path(batch.Keywords, batch.JobID)

	w, err := NewCSVWriter(path)
	if err != nil {
		return Result{}, err
	}
	if err := w.WriteRecords(batch.Rows); err != nil {
		_ = w.Close()
		return Result{}, err
	}
	if err := w.Close(); err != nil {
		return Result{}, fmt.Errorf("csv: close %q: %w", path, err)
	}
	return Result{Location: path, Rows: len(batch.Rows)}, nil
}

// ReadCSV loads records back from an export written by CSVWriter. Columns
// are matched by header name, so unknown columns are ignored.
func ReadCSV(path string) ([]models.CleanRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}

	var records []models.CleanRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		get := func(col string) string {
			if i, ok := idx[col]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}

		rec := models.CleanRecord{
			IdentityKey:  get("identity_key"),
			Title:        get("title"),
			Company:      get("company"),
			Location:     get("location"),
			WorkSetting:  get("work_setting"),
			SalaryPeriod: get("salary_period"),
			Currency:     get("currency"),
			PostingURL:   get("posting_url"),
			CompanyURL:   get("company_url"),
			Description:  get("description"),
		}
		rec.ListingID, _ = strconv.ParseInt(get("listing_id"), 10, 64)
		rec.CompanyRating, _ = strconv.ParseFloat(get("company_rating"), 64)
		rec.SalaryMin, _ = strconv.ParseFloat(get("salary_min"), 64)
		rec.SalaryMax, _ = strconv.ParseFloat(get("salary_max"), 64)
		rec.Remote, _ = strconv.ParseBool(get("remote"))
		rec.EasyApply, _ = strconv.ParseBool(get("easy_apply"))
		if s := get("skills"); s != "" {
			rec.Skills = strings.Split(s, ", ")
		}
		rec.DatePosted, _ = time.Parse("2006-01-02", get("date_posted"))
		rec.ScrapedAt, _ = time.Parse(time.RFC3339, get("scraped_at"))
		records = append(records, rec)
	}
	return records, nil
}
