package models

import "time"

// Session holds the upstream credentials a scrape needs. It is owned by the
// job that acquired it and never shared across jobs.
type Session struct {
	Token      string
	CSRFToken  string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session should be renegotiated before use.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.CSRFToken == "" {
		return true
	}
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Location types used by the upstream search.
const (
	LocationCity    = "CITY"
	LocationState   = "STATE"
	LocationCountry = "COUNTRY"
)

// LocationRef is a resolved upstream location.
type LocationRef struct {
	Query string
	ID    int64
	Type  string
	Label string
}

// RawRecord is one upstream job listing as returned by the search endpoint.
type RawRecord struct {
	Header   RawHeader   `json:"header"`
	Job      RawJob      `json:"job"`
	Overview RawOverview `json:"overview"`
}

type RawHeader struct {
	AgeInDays              *int         `json:"ageInDays"`
	DivisionEmployerName   string       `json:"divisionEmployerName"`
	EasyApply              bool         `json:"easyApply"`
	Employer               *RawEmployer `json:"employer"`
	EmployerNameFromSearch string       `json:"employerNameFromSearch"`
	JobLink                string       `json:"jobLink"`
	JobTitleText           string       `json:"jobTitleText"`
	LocationName           string       `json:"locationName"`
	LocationType           string       `json:"locationType"`
	PayPeriod              string       `json:"payPeriod"`
	PayPeriodAdjustedPay   *RawPay      `json:"payPeriodAdjustedPay"`
	PayCurrency            string       `json:"payCurrency"`
	Rating                 *float64     `json:"rating"`
	SalaryEstimate         string       `json:"salaryEstimate"`
}

type RawEmployer struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type RawPay struct {
	P10 *float64 `json:"p10"`
	P50 *float64 `json:"p50"`
	P90 *float64 `json:"p90"`
}

type RawJob struct {
	Description  string `json:"description"`
	ListingID    int64  `json:"listingId"`
	JobTitleText string `json:"jobTitleText"`
}

type RawOverview struct {
	ShortName     string `json:"shortName"`
	SquareLogoURL string `json:"squareLogoUrl"`
}

// Salary periods retained on a CleanRecord.
const (
	PeriodAnnual  = "annual"
	PeriodHourly  = "hourly"
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Work settings derived from location qualifiers and descriptions.
const (
	SettingRemote = "remote"
	SettingHybrid = "hybrid"
	SettingOnSite = "on-site"
)

// CleanRecord is the canonical output row. Salary values are annualized;
// zero means the value is absent.
type CleanRecord struct {
	IdentityKey   string
	ListingID     int64
	Title         string
	Company       string
	CompanyRating float64
	Location      string
	Remote        bool
	WorkSetting   string
	SalaryMin     float64
	SalaryMax     float64
	SalaryPeriod  string
	Currency      string
	Description   string
	Skills        []string
	PostingURL    string
	CompanyURL    string
	EasyApply     bool
	DatePosted    time.Time
	ScrapedAt     time.Time
}

// HasSalary reports whether a salary range was recovered.
func (r *CleanRecord) HasSalary() bool {
	return r.SalaryMax > 0
}

// JobStatus is the lifecycle state of a ScrapeJob.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ScrapeJob tracks one scrape request from submission to a terminal state.
type ScrapeJob struct {
	ID             string    `json:"job_id"`
	Keywords       string    `json:"keywords"`
	Location       string    `json:"location"`
	SpreadsheetID  string    `json:"spreadsheet_id,omitempty"`
	RequestedPages int       `json:"requested_pages"`
	PagesCompleted int       `json:"pages_done"`
	RecordsFound   int       `json:"records_found"`
	Dropped        int       `json:"dropped"`
	Duplicates     int       `json:"duplicates"`
	Shortfall      string    `json:"shortfall,omitempty"`
	Status         JobStatus `json:"status"`
	Message        string    `json:"message,omitempty"`
	Error          string    `json:"error,omitempty"`
	ExportPath     string    `json:"-"`
	SheetURL       string    `json:"sheet_url,omitempty"`
	Worksheet      string    `json:"worksheet,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
}

// InsightReport holds summary analytics over a cleaned dataset.
type InsightReport struct {
	TotalJobs       int
	WithSalary      int
	RemoteJobs      int
	AverageSalary   float64
	MedianSalary    float64
	MinSalary       float64
	MaxSalary       float64
	HighestPaid     *CleanRecord
	TopSkills       []Count
	TitleCategories []Count
	Seniority       []Count
	TopCompanies    []Count
	JobsByLocation  map[string]int
}

// Count is a labelled tally used by InsightReport.
type Count struct {
	Label string
	N     int
}
