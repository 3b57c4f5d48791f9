package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"glassdoor-scraper/models"
)

const pgColumns = 20

// PostgresWriter archives cleaned records to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS job_listings (
			id             SERIAL PRIMARY KEY,
			identity_key   VARCHAR(64)   UNIQUE NOT NULL,
			job_id         TEXT          NOT NULL,
			listing_id     BIGINT        NOT NULL DEFAULT 0,
			title          TEXT          NOT NULL,
			company        TEXT          NOT NULL,
			company_rating NUMERIC(3,1)  NOT NULL DEFAULT 0,
			location       TEXT          NOT NULL DEFAULT '',
			remote         BOOLEAN       NOT NULL DEFAULT FALSE,
			work_setting   VARCHAR(16)   NOT NULL DEFAULT '',
			salary_min     NUMERIC(12,0) NOT NULL DEFAULT 0,
			salary_max     NUMERIC(12,0) NOT NULL DEFAULT 0,
			salary_period  VARCHAR(16)   NOT NULL DEFAULT '',
			currency       VARCHAR(8)    NOT NULL DEFAULT '',
			skills         TEXT[]        NOT NULL DEFAULT '{}',
			easy_apply     BOOLEAN       NOT NULL DEFAULT FALSE,
			date_posted    DATE,
			posting_url    TEXT          NOT NULL,
			company_url    TEXT          NOT NULL DEFAULT '',
			description    TEXT          NOT NULL DEFAULT '',
			scraped_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		ALTER TABLE job_listings ADD COLUMN IF NOT EXISTS easy_apply BOOLEAN NOT NULL DEFAULT FALSE;
		ALTER TABLE job_listings ADD COLUMN IF NOT EXISTS date_posted DATE;

		CREATE INDEX IF NOT EXISTS idx_job_listings_job_id   ON job_listings(job_id);
		CREATE INDEX IF NOT EXISTS idx_job_listings_company  ON job_listings(company);
		CREATE INDEX IF NOT EXISTS idx_job_listings_location ON job_listings(location);
		CREATE INDEX IF NOT EXISTS idx_job_listings_salary   ON job_listings(salary_max);
	`)
	return err
}

// Write batch-inserts the rows. Records already archived by an earlier job
// are left untouched.
func (pw *PostgresWriter) Write(ctx context.Context, batch Batch) (Result, error) {
	if len(batch.Rows) == 0 {
		return Result{}, nil
	}

	const batchSize = 50
	for i := 0; i < len(batch.Rows); i += batchSize {
		end := i + batchSize
		if end > len(batch.Rows) {
			end = len(batch.Rows)
		}
		query, args := buildInsert(batch.JobID, batch.Rows[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return Result{}, fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return Result{Location: "postgres:job_listings", Rows: len(batch.Rows)}, nil
}

func buildInsert(jobID string, rows []models.CleanRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]interface{}, 0, len(rows)*pgColumns)

	for idx, r := range rows {
		base := idx * pgColumns
		placeholders := make([]string, pgColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		skills := r.Skills
		if skills == nil {
			skills = []string{}
		}
		valueArgs = append(valueArgs,
			r.IdentityKey, jobID, r.ListingID, r.Title, r.Company, r.CompanyRating,
			r.Location, r.Remote, r.WorkSetting, r.SalaryMin, r.SalaryMax,
			r.SalaryPeriod, r.Currency, pq.Array(skills), r.EasyApply,
			nullableDate(r.DatePosted), r.PostingURL, r.CompanyURL, r.Description, r.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO job_listings (identity_key, job_id, listing_id, title, company, company_rating,
			location, remote, work_setting, salary_min, salary_max, salary_period, currency,
			skills, easy_apply, date_posted, posting_url, company_url, description, scraped_at)
		VALUES %s
		ON CONFLICT (identity_key) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// nullableDate stores an unknown posting date as NULL.
func nullableDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all archived records, used by the insight report.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]models.CleanRecord, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT identity_key, listing_id, title, company, company_rating, location, remote,
			work_setting, salary_min, salary_max, salary_period, currency, skills,
			easy_apply, date_posted, posting_url, company_url, description, scraped_at
		FROM job_listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []models.CleanRecord
	for rows.Next() {
		var (
			r      models.CleanRecord
			posted sql.NullTime
		)
		if err := rows.Scan(
			&r.IdentityKey, &r.ListingID, &r.Title, &r.Company, &r.CompanyRating,
			&r.Location, &r.Remote, &r.WorkSetting, &r.SalaryMin, &r.SalaryMax,
			&r.SalaryPeriod, &r.Currency, pq.Array(&r.Skills), &r.EasyApply, &posted,
			&r.PostingURL, &r.CompanyURL, &r.Description, &r.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if posted.Valid {
			r.DatePosted = posted.Time
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
