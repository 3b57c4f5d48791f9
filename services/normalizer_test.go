package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassdoor-scraper/models"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizer("https://www.glassdoor.com", nil, func() time.Time { return fixedNow })
}

func rawListing(id int64, title, company, location string) models.RawRecord {
	return models.RawRecord{
		Header: models.RawHeader{
			EmployerNameFromSearch: company,
			Employer:               &models.RawEmployer{ID: 1000 + id, Name: company},
			JobTitleText:           title,
			LocationName:           location,
		},
		Job: models.RawJob{
			ListingID:    id,
			JobTitleText: title,
			Description:  "<p>Build pipelines with Python and SQL.</p>",
		},
	}
}

func TestNormalizeBuildsCleanRecord(t *testing.T) {
	n := newTestNormalizer()
	age := 3
	raw := rawListing(42, "Data Engineer", "Acme", "Austin, TX")
	raw.Header.AgeInDays = &age
	raw.Header.PayPeriod = "ANNUAL"
	raw.Header.PayCurrency = "USD"
	raw.Header.PayPeriodAdjustedPay = &models.RawPay{P10: fp(90000), P90: fp(130000)}
	raw.Header.Rating = fp(4.1)
	raw.Header.EasyApply = true

	rec, outcome := n.Normalize(&raw)
	require.Equal(t, Kept, outcome)
	require.NotNil(t, rec)

	assert.Equal(t, "Data Engineer", rec.Title)
	assert.Equal(t, "Acme", rec.Company)
	assert.Equal(t, 4.1, rec.CompanyRating)
	assert.Equal(t, "Austin, TX", rec.Location)
	assert.False(t, rec.Remote)
	assert.Equal(t, 90000.0, rec.SalaryMin)
	assert.Equal(t, 130000.0, rec.SalaryMax)
	assert.Equal(t, models.PeriodAnnual, rec.SalaryPeriod)
	assert.Equal(t, "Build pipelines with Python and SQL.", rec.Description)
	assert.Equal(t, []string{"python", "sql"}, rec.Skills)
	assert.Equal(t, "https://www.glassdoor.com/job-listing/j?jl=42", rec.PostingURL)
	assert.Equal(t, "https://www.glassdoor.com/Overview/W-EI_IE1042.htm", rec.CompanyURL)
	assert.True(t, rec.EasyApply)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), rec.DatePosted)
	assert.Equal(t, fixedNow, rec.ScrapedAt)
	assert.Equal(t, IdentityKey("Acme", "Data Engineer", "Austin, TX", rec.PostingURL), rec.IdentityKey)
	assert.Len(t, rec.IdentityKey, 32)
}

func TestNormalizeDropsMissingMandatoryFields(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
	}{
		{"no title", rawListing(1, "", "Acme", "Austin, TX")},
		{"blank title", rawListing(2, "   ", "Acme", "Austin, TX")},
		{"no company", func() models.RawRecord {
			r := rawListing(3, "Analyst", "", "Austin, TX")
			r.Header.Employer = nil
			return r
		}()},
		{"no posting identity", func() models.RawRecord {
			r := rawListing(0, "Analyst", "Acme", "Austin, TX")
			r.Header.JobLink = ""
			return r
		}()},
	}

	for _, tt := range tests {
		n := newTestNormalizer()
		rec, outcome := n.Normalize(&tt.raw)
		if rec != nil || outcome != Skipped {
			t.Errorf("%s: Normalize = (%v, %v); want (nil, skipped)", tt.name, rec, outcome)
		}
	}
}

func TestNormalizeFallbackFields(t *testing.T) {
	n := newTestNormalizer()
	raw := models.RawRecord{
		Header: models.RawHeader{
			JobTitleText:         "BI Analyst",
			DivisionEmployerName: "Initech 3.8",
			JobLink:              "/partner/jobListing.htm?jobListingId=77",
			LocationName:         "Remote",
			SalaryEstimate:       "$25 - $30 Per Hour (Employer est.)",
		},
	}

	rec, outcome := n.Normalize(&raw)
	require.Equal(t, Kept, outcome)
	assert.Equal(t, "BI Analyst", rec.Title)
	assert.Equal(t, "Initech", rec.Company)
	assert.Equal(t, 3.8, rec.CompanyRating)
	assert.Equal(t, "https://www.glassdoor.com/partner/jobListing.htm?jobListingId=77", rec.PostingURL)
	assert.Equal(t, "Remote", rec.Location)
	assert.True(t, rec.Remote)
	assert.Equal(t, 52000.0, rec.SalaryMin)
	assert.Equal(t, 62400.0, rec.SalaryMax)
	assert.Equal(t, models.PeriodHourly, rec.SalaryPeriod)
	assert.Empty(t, rec.CompanyURL)
}

func TestNormalizeSalaryFromDescription(t *testing.T) {
	n := newTestNormalizer()
	raw := rawListing(9, "Analyst", "Acme", "Denver, CO")
	raw.Job.Description = "<div>Pay range: $70,000 - $85,000 per year.</div>"

	rec, outcome := n.Normalize(&raw)
	require.Equal(t, Kept, outcome)
	assert.Equal(t, 70000.0, rec.SalaryMin)
	assert.Equal(t, 85000.0, rec.SalaryMax)
}

func TestNormalizeDeduplicates(t *testing.T) {
	n := newTestNormalizer()
	raw := rawListing(7, "Data Engineer", "Acme", "Austin, TX")

	first, o1 := n.Normalize(&raw)
	second, o2 := n.Normalize(&raw)

	if o1 != Kept || first == nil {
		t.Fatalf("first Normalize = %v; want kept", o1)
	}
	if o2 != Duplicate || second != nil {
		t.Errorf("second Normalize = (%v, %v); want (nil, duplicate)", second, o2)
	}
	if n.Seen() != 1 {
		t.Errorf("Seen: got %d, want 1", n.Seen())
	}
}

func TestNormalizePageDedupeAcrossPages(t *testing.T) {
	n := newTestNormalizer()

	page1 := make([]models.RawRecord, 0, 25)
	for i := 1; i <= 25; i++ {
		page1 = append(page1, rawListing(int64(i), fmt.Sprintf("Engineer %d", i), "Acme", "Austin, TX"))
	}
	page2 := make([]models.RawRecord, 0, 18)
	for i := 1; i <= 3; i++ {
		page2 = append(page2, page1[i])
	}
	for i := 26; i <= 40; i++ {
		page2 = append(page2, rawListing(int64(i), fmt.Sprintf("Engineer %d", i), "Acme", "Austin, TX"))
	}

	out1, s1 := n.NormalizePage(page1)
	out2, s2 := n.NormalizePage(page2)

	assert.Len(t, out1, 25)
	assert.Len(t, out2, 15)
	assert.Equal(t, PageStats{Kept: 15, Duplicates: 3}, s2)
	assert.Equal(t, PageStats{Kept: 25}, s1)
	assert.Equal(t, "Engineer 26", out2[0].Title)
}

func TestNormalizersDoNotShareState(t *testing.T) {
	raw := rawListing(5, "Analyst", "Acme", "Austin, TX")

	a, b := newTestNormalizer(), newTestNormalizer()
	if _, o := a.Normalize(&raw); o != Kept {
		t.Fatalf("job A: got %v, want kept", o)
	}
	if _, o := b.Normalize(&raw); o != Kept {
		t.Errorf("job B: got %v, want kept (dedupe state leaked across jobs)", o)
	}
}

func TestSplitCompanyRating(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		rating float64
	}{
		{"Acme Corp 4.2", "Acme Corp", 4.2},
		{"Acme Corp\n3.9 ★", "Acme Corp", 3.9},
		{"Acme Corp", "Acme Corp", 0},
		{"3M", "3M", 0},
		{"Studio 54", "Studio 54", 0},
	}
	for _, tt := range tests {
		name, rating := splitCompanyRating(tt.in)
		if name != tt.name || rating != tt.rating {
			t.Errorf("splitCompanyRating(%q) = (%q, %.1f); want (%q, %.1f)", tt.in, name, rating, tt.name, tt.rating)
		}
	}
}

func TestIdentityKeyStable(t *testing.T) {
	a := IdentityKey("Acme", "Data Engineer", "Austin, TX", "https://x/j?jl=1")
	b := IdentityKey("ACME", "data engineer", "austin, tx", "https://x/j?jl=1")
	c := IdentityKey("Acme", "Data Engineer", "Austin, TX", "https://x/j?jl=2")

	if a != b {
		t.Errorf("IdentityKey should ignore case: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("IdentityKey should differ for distinct postings")
	}
}
