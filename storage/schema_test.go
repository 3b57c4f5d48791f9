package storage

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"glassdoor-scraper/models"
)

func TestRowMatchesHeader(t *testing.T) {
	r := models.CleanRecord{
		IdentityKey:   "abc",
		ListingID:     1001,
		Title:         "Data Engineer",
		Company:       "Acme",
		CompanyRating: 4.2,
		Location:      "Austin, TX",
		WorkSetting:   models.SettingOnSite,
		SalaryMin:     90000,
		SalaryMax:     120000,
		SalaryPeriod:  models.PeriodAnnual,
		Currency:      "USD",
		Skills:        []string{"python", "sql"},
		PostingURL:    "https://www.glassdoor.com/job-listing/j?jl=1001",
		DatePosted:    time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC),
		ScrapedAt:     time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}

	row := Row(r)
	if len(row) != len(Header()) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(Header()))
	}

	got := map[string]string{}
	for i, col := range Header() {
		got[col] = row[i]
	}
	want := map[string]string{
		"identity_key":   "abc",
		"listing_id":     "1001",
		"title":          "Data Engineer",
		"company":        "Acme",
		"company_rating": "4.2",
		"location":       "Austin, TX",
		"remote":         "false",
		"work_setting":   "on-site",
		"salary_min":     "90000",
		"salary_max":     "120000",
		"salary_period":  "annual",
		"currency":       "USD",
		"skills":         "python, sql",
		"easy_apply":     "false",
		"date_posted":    "2024-05-08",
		"posting_url":    "https://www.glassdoor.com/job-listing/j?jl=1001",
		"company_url":    "",
		"description":    "",
		"scraped_at":     "2024-05-10T12:00:00Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Row mismatch (-want +got):\n%s", diff)
	}
}

func TestRowAbsentValuesEmpty(t *testing.T) {
	row := Row(models.CleanRecord{Title: "Analyst"})
	for i, col := range Header() {
		switch col {
		case "listing_id", "company_rating", "salary_min", "salary_max", "date_posted", "skills":
			if row[i] != "" {
				t.Errorf("%s: got %q, want empty", col, row[i])
			}
		}
	}
}

func TestHeaderIsCopy(t *testing.T) {
	h := Header()
	h[0] = "mutated"
	if Header()[0] != "identity_key" {
		t.Error("Header must return a fresh slice")
	}
}

func TestWorksheetName(t *testing.T) {
	at := time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)

	tests := []struct {
		keywords string
		want     string
	}{
		{"data engineer", "data_engineer_jobs_20240510_0905"},
		{"  C++ / Rust ", "c_rust_jobs_20240510_0905"},
		{"", "search_jobs_20240510_0905"},
	}
	for _, tt := range tests {
		if got := WorksheetName(tt.keywords, at); got != tt.want {
			t.Errorf("WorksheetName(%q): got %q, want %q", tt.keywords, got, tt.want)
		}
	}
}
