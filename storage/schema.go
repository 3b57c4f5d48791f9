package storage

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"glassdoor-scraper/models"
)

var columns = []string{
	"identity_key", "listing_id", "title", "company", "company_rating",
	"location", "remote", "work_setting", "salary_min", "salary_max",
	"salary_period", "currency", "skills", "easy_apply", "date_posted",
	"posting_url", "company_url", "description", "scraped_at",
}

// Header returns the column names shared by every tabular sink.
func Header() []string {
	return append([]string(nil), columns...)
}

// Row renders a record in Header order. Absent numbers render empty.
func Row(r models.CleanRecord) []string {
	var posted string
	if !r.DatePosted.IsZero() {
		posted = r.DatePosted.Format("2006-01-02")
	}
	return []string{
		r.IdentityKey,
		formatInt(r.ListingID),
		r.Title,
		r.Company,
		formatFloat(r.CompanyRating, 1),
		r.Location,
		strconv.FormatBool(r.Remote),
		r.WorkSetting,
		formatFloat(r.SalaryMin, 0),
		formatFloat(r.SalaryMax, 0),
		r.SalaryPeriod,
		r.Currency,
		strings.Join(r.Skills, ", "),
		strconv.FormatBool(r.EasyApply),
		posted,
		r.PostingURL,
		r.CompanyURL,
		r.Description,
		r.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

var nonSlugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// WorksheetName names a worksheet after the search and the time it ran,
// e.g. "data_engineer_jobs_20240510_1200".
func WorksheetName(keywords string, at time.Time) string {
	return slug(keywords) + "_jobs_" + at.Format("20060102_1504")
}

func slug(s string) string {
	s = strings.Trim(nonSlugRegexp.ReplaceAllString(strings.ToLower(s), "_"), "_")
	if s == "" {
		return "search"
	}
	return s
}

func formatFloat(f float64, prec int) string {
	if f <= 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func formatInt(n int64) string {
	if n <= 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
