package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

// companyRatingRegexp captures a rating glued to the end of a company name,
// e.g. "Acme Corp 4.2" or "Acme Corp\n4.2 ★".
var companyRatingRegexp = regexp.MustCompile(`^(.*?)[\s\n]+([0-5]\.\d)\s*★?$`)

// Outcome describes what happened to one raw record.
type Outcome int

const (
	Kept Outcome = iota
	// Skipped records lack a title, company or posting identity.
	Skipped
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Kept:
		return "kept"
	case Skipped:
		return "skipped"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// PageStats tallies the outcomes of one NormalizePage call.
type PageStats struct {
	Kept       int
	Skipped    int
	Duplicates int
}

// Normalizer turns raw upstream records into CleanRecords. It holds the
// dedupe state for a single job and must not be shared between jobs.
type Normalizer struct {
	baseURL string
	seen    *utils.KeySet
	skills  *SkillMatcher
	now     func() time.Time
}

// NewNormalizer creates a Normalizer. baseURL is used to build posting and
// company links; now supplies scraped_at timestamps.
func NewNormalizer(baseURL string, skills *SkillMatcher, now func() time.Time) *Normalizer {
	if skills == nil {
		skills = NewSkillMatcher(DefaultSkills)
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		seen:    utils.NewKeySet(),
		skills:  skills,
		now:     now,
	}
}

// NormalizePage normalizes a batch in order, dropping skipped and duplicate
// records.
func (n *Normalizer) NormalizePage(raws []models.RawRecord) ([]models.CleanRecord, PageStats) {
	var stats PageStats
	out := make([]models.CleanRecord, 0, len(raws))

	for i := range raws {
		rec, outcome := n.Normalize(&raws[i])
		switch outcome {
		case Kept:
			out = append(out, *rec)
			stats.Kept++
		case Skipped:
			stats.Skipped++
		case Duplicate:
			stats.Duplicates++
		}
	}
	return out, stats
}

// Normalize converts one raw record. The returned record is nil unless the
// outcome is Kept.
func (n *Normalizer) Normalize(raw *models.RawRecord) (*models.CleanRecord, Outcome) {
	title := normaliseText(firstNonEmpty(raw.Job.JobTitleText, raw.Header.JobTitleText))

	company, suffixRating := splitCompanyRating(companyName(raw))
	postingURL := n.postingURL(raw)

	if title == "" || company == "" || postingURL == "" {
		return nil, Skipped
	}

	location, setting := NormalizeLocation(raw.Header.LocationName)
	description := PlainText(raw.Job.Description)
	if setting == "" {
		setting = WorkSettingFromText(title + " " + description)
	}

	rec := &models.CleanRecord{
		ListingID:     raw.Job.ListingID,
		Title:         title,
		Company:       company,
		CompanyRating: companyRating(raw.Header.Rating, suffixRating),
		Location:      location,
		Remote:        setting == models.SettingRemote,
		WorkSetting:   setting,
		Description:   description,
		Skills:        n.skills.Match(title + " " + description),
		PostingURL:    postingURL,
		CompanyURL:    n.companyURL(raw.Header.Employer),
		EasyApply:     raw.Header.EasyApply,
		ScrapedAt:     n.now(),
	}

	salary, ok := ParseStructuredPay(raw.Header.PayPeriod, raw.Header.PayCurrency, raw.Header.PayPeriodAdjustedPay)
	if !ok {
		salary, ok = ParseSalaryText(raw.Header.SalaryEstimate)
	}
	if !ok {
		salary, ok = FindSalaryInText(description)
	}
	if ok {
		rec.SalaryMin = salary.Min
		rec.SalaryMax = salary.Max
		rec.SalaryPeriod = salary.Period
		rec.Currency = salary.Currency
	}

	if age := raw.Header.AgeInDays; age != nil && *age >= 0 {
		y, m, d := rec.ScrapedAt.AddDate(0, 0, -*age).Date()
		rec.DatePosted = time.Date(y, m, d, 0, 0, 0, 0, rec.ScrapedAt.Location())
	}

	rec.IdentityKey = IdentityKey(company, title, location, postingURL)
	if !n.seen.Add(rec.IdentityKey) {
		return nil, Duplicate
	}
	return rec, Kept
}

// Seen returns the number of distinct records kept so far.
func (n *Normalizer) Seen() int {
	return n.seen.Size()
}

// IdentityKey is the dedupe hash over company, title, location and posting url.
func IdentityKey(company, title, location, postingURL string) string {
	h := sha256.New()
	for _, part := range []string{
		strings.ToLower(company),
		strings.ToLower(title),
		strings.ToLower(location),
		strings.TrimSpace(postingURL),
	} {
		h.Write([]byte(part))
		h.Write([]byte{'|'})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

func (n *Normalizer) postingURL(raw *models.RawRecord) string {
	if raw.Job.ListingID > 0 {
		return fmt.Sprintf("%s/job-listing/j?jl=%d", n.baseURL, raw.Job.ListingID)
	}
	link := strings.TrimSpace(raw.Header.JobLink)
	if strings.HasPrefix(link, "/") {
		return n.baseURL + link
	}
	return link
}

func (n *Normalizer) companyURL(e *models.RawEmployer) string {
	if e == nil || e.ID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/Overview/W-EI_IE%d.htm", n.baseURL, e.ID)
}

func companyName(raw *models.RawRecord) string {
	var employerName, employerShort string
	if raw.Header.Employer != nil {
		employerName = raw.Header.Employer.Name
		employerShort = raw.Header.Employer.ShortName
	}
	return firstNonEmpty(
		raw.Header.EmployerNameFromSearch,
		employerName,
		employerShort,
		raw.Header.DivisionEmployerName,
		raw.Overview.ShortName,
	)
}

// splitCompanyRating separates a trailing rating from a company name.
func splitCompanyRating(name string) (string, float64) {
	name = strings.TrimSpace(name)
	m := companyRatingRegexp.FindStringSubmatch(name)
	if m == nil {
		return normaliseText(name), 0
	}
	rating, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return normaliseText(name), 0
	}
	return normaliseText(m[1]), rating
}

func companyRating(header *float64, suffix float64) float64 {
	if header != nil && *header > 0 && *header <= 5 {
		return *header
	}
	return suffix
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
