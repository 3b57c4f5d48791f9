package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

func sampleRecords() []models.CleanRecord {
	return []models.CleanRecord{
		{Title: "Senior Data Engineer", Company: "Acme", Location: "Austin, TX", SalaryMin: 100000, SalaryMax: 140000, Skills: []string{"python", "sql"}},
		{Title: "Data Analyst", Company: "Globex", Location: "Austin, TX", SalaryMin: 60000, SalaryMax: 80000, Skills: []string{"excel", "sql"}},
		{Title: "Business Analyst", Company: "Acme", Location: "Toronto, ON", Remote: true, Skills: []string{"excel"}},
		{Title: "Jr. Data Scientist", Company: "Initech", Location: "Remote", Remote: true, SalaryMin: 90000, SalaryMax: 90000, Skills: []string{"python"}},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())
	if r.TotalJobs != 4 {
		t.Errorf("TotalJobs: got %d, want 4", r.TotalJobs)
	}
	if r.WithSalary != 3 {
		t.Errorf("WithSalary: got %d, want 3", r.WithSalary)
	}
	if r.RemoteJobs != 2 {
		t.Errorf("RemoteJobs: got %d, want 2", r.RemoteJobs)
	}
}

func TestInsightSalaries(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())
	if r.AverageSalary != 93333.33 {
		t.Errorf("AverageSalary: got %.2f, want 93333.33", r.AverageSalary)
	}
	if r.MedianSalary != 90000 {
		t.Errorf("MedianSalary: got %.2f, want 90000", r.MedianSalary)
	}
	if r.MinSalary != 60000 {
		t.Errorf("MinSalary: got %.2f, want 60000", r.MinSalary)
	}
	if r.MaxSalary != 140000 {
		t.Errorf("MaxSalary: got %.2f, want 140000", r.MaxSalary)
	}
}

func TestInsightHighestPaid(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())
	if r.HighestPaid == nil {
		t.Fatal("HighestPaid should not be nil")
	}
	if r.HighestPaid.Title != "Senior Data Engineer" {
		t.Errorf("HighestPaid: got %q, want %q", r.HighestPaid.Title, "Senior Data Engineer")
	}
}

func TestInsightRankings(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())

	wantSkills := []models.Count{{Label: "excel", N: 2}, {Label: "python", N: 2}, {Label: "sql", N: 2}}
	if diff := cmp.Diff(wantSkills, r.TopSkills); diff != "" {
		t.Errorf("TopSkills (-want +got):\n%s", diff)
	}
	wantSeniority := []models.Count{{Label: "mid-level", N: 2}, {Label: "junior", N: 1}, {Label: "senior", N: 1}}
	if diff := cmp.Diff(wantSeniority, r.Seniority); diff != "" {
		t.Errorf("Seniority (-want +got):\n%s", diff)
	}
	wantCompanies := []models.Count{{Label: "Acme", N: 2}, {Label: "Globex", N: 1}, {Label: "Initech", N: 1}}
	if diff := cmp.Diff(wantCompanies, r.TopCompanies); diff != "" {
		t.Errorf("TopCompanies (-want +got):\n%s", diff)
	}
}

func TestInsightLocationGrouping(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(sampleRecords())
	if r.JobsByLocation["Austin, TX"] != 2 {
		t.Errorf("Austin count: got %d, want 2", r.JobsByLocation["Austin, TX"])
	}
	if r.JobsByLocation["Remote"] != 1 {
		t.Errorf("Remote count: got %d, want 1", r.JobsByLocation["Remote"])
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	r := svc.Generate(nil)
	if r.TotalJobs != 0 || r.HighestPaid != nil {
		t.Errorf("expected an empty report, got %+v", r)
	}
}

func TestTitleCategory(t *testing.T) {
	tests := map[string]string{
		"Senior Business Analyst": "business analyst",
		"Data Analyst II":         "analyst",
		"Research Scientist":      "scientist",
		"Software Engineer":       "engineer",
		"Product Manager":         "manager",
		"Recruiter":               "other",
	}
	for title, want := range tests {
		if got := TitleCategory(title); got != want {
			t.Errorf("TitleCategory(%q) = %q; want %q", title, got, want)
		}
	}
}

func TestSeniorityLevel(t *testing.T) {
	tests := map[string]string{
		"Sr. Data Engineer":   "senior",
		"Lead Analyst":        "senior",
		"Junior Developer":    "junior",
		"Data Analyst Intern": "junior",
		"Engineering Manager": "manager",
		"SAP Specialist":      "expert",
		"Data Analyst":        "mid-level",
		"SRE, Platform":       "mid-level",
	}
	for title, want := range tests {
		if got := SeniorityLevel(title); got != want {
			t.Errorf("SeniorityLevel(%q) = %q; want %q", title, got, want)
		}
	}
}

func TestInsightPrint(t *testing.T) {
	svc := NewInsightService(utils.NewTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleRecords()))

	out := buf.String()
	for _, want := range []string{"Total jobs", "excel", "Austin, TX", "Senior Data Engineer @ Acme"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
