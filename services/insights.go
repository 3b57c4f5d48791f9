package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"

	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

const topCompanies = 10

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes a cleaned dataset. Salary figures only consider
// records that carry a salary.
func (s *InsightService) Generate(records []models.CleanRecord) *models.InsightReport {
	report := &models.InsightReport{
		JobsByLocation: make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalJobs = len(records)

	skills := map[string]int{}
	titles := map[string]int{}
	seniority := map[string]int{}
	companies := map[string]int{}
	var mids []float64

	for i := range records {
		r := &records[i]
		if r.Remote {
			report.RemoteJobs++
		}
		if r.Location != "" {
			report.JobsByLocation[r.Location]++
		}
		if r.Company != "" {
			companies[r.Company]++
		}
		for _, sk := range r.Skills {
			skills[sk]++
		}
		titles[TitleCategory(r.Title)]++
		seniority[SeniorityLevel(r.Title)]++

		if !r.HasSalary() {
			continue
		}
		report.WithSalary++
		lo := r.SalaryMin
		if lo <= 0 {
			lo = r.SalaryMax
		}
		mids = append(mids, (lo+r.SalaryMax)/2)
		if report.MinSalary == 0 || lo < report.MinSalary {
			report.MinSalary = lo
		}
		if r.SalaryMax > report.MaxSalary {
			report.MaxSalary = r.SalaryMax
			report.HighestPaid = r
		}
	}

	if len(mids) > 0 {
		var total float64
		for _, m := range mids {
			total += m
		}
		report.AverageSalary = round2(total / float64(len(mids)))

		sort.Float64s(mids)
		n := len(mids)
		if n%2 == 1 {
			report.MedianSalary = mids[n/2]
		} else {
			report.MedianSalary = round2((mids[n/2-1] + mids[n/2]) / 2)
		}
	}

	report.TopSkills = rank(skills, 0)
	report.TitleCategories = rank(titles, 0)
	report.Seniority = rank(seniority, 0)
	report.TopCompanies = rank(companies, topCompanies)
	return report
}

// TitleCategory buckets a job title into a coarse role family.
func TitleCategory(title string) string {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "business analyst"):
		return "business analyst"
	case strings.Contains(t, "analyst"):
		return "analyst"
	case strings.Contains(t, "scientist"):
		return "scientist"
	case strings.Contains(t, "engineer"):
		return "engineer"
	case strings.Contains(t, "manager"):
		return "manager"
	default:
		return "other"
	}
}

// SeniorityLevel guesses the seniority implied by a job title.
func SeniorityLevel(title string) string {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}
	has := func(ws ...string) bool {
		for _, w := range ws {
			if words[w] {
				return true
			}
		}
		return false
	}

	switch {
	case has("senior", "sr", "lead", "principal"):
		return "senior"
	case has("junior", "jr", "entry", "intern", "internship"):
		return "junior"
	case has("manager"):
		return "manager"
	case has("expert", "specialist"):
		return "expert"
	default:
		return "mid-level"
	}
}

// rank orders counts by frequency, then label. A limit of zero keeps all.
func rank(counts map[string]int, limit int) []models.Count {
	out := make([]models.Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, models.Count{Label: label, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Label < out[j].Label
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Print renders the report as a set of tables.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	fmt.Fprintf(w, "\n\033[1;35m  GLASSDOOR SCRAPE INSIGHTS\033[0m\n\n")

	t := utils.NewTable(w)
	t.SetTitle("Overview")
	t.AppendRows([]table.Row{
		{"Total jobs", r.TotalJobs},
		{"With salary", r.WithSalary},
		{"Remote", r.RemoteJobs},
	})
	t.Render()

	t = utils.NewTable(w)
	t.SetTitle("Salary (annual)")
	if r.WithSalary > 0 {
		t.AppendRows([]table.Row{
			{"Average", money(r.AverageSalary)},
			{"Median", money(r.MedianSalary)},
			{"Minimum", money(r.MinSalary)},
			{"Maximum", money(r.MaxSalary)},
		})
		if hp := r.HighestPaid; hp != nil {
			t.AppendSeparator()
			t.AppendRow(table.Row{"Highest paid", truncate(hp.Title+" @ "+hp.Company, 50)})
		}
	} else {
		t.AppendRow(table.Row{"No salary data available"})
	}
	t.Render()

	printCounts(w, "Top skills", "Skill", r.TopSkills)
	printCounts(w, "Role families", "Category", r.TitleCategories)
	printCounts(w, "Seniority", "Level", r.Seniority)
	printCounts(w, "Top companies", "Company", r.TopCompanies)

	locs := make(map[string]int, len(r.JobsByLocation))
	for loc, n := range r.JobsByLocation {
		locs[loc] = n
	}
	byLoc := rank(locs, 0)
	t = utils.NewTable(w)
	t.SetTitle("Jobs by location")
	t.AppendHeader(table.Row{"Location", "Jobs", ""})
	for _, c := range byLoc {
		t.AppendRow(table.Row{truncate(c.Label, 28), c.N, strings.Repeat("█", c.N)})
	}
	t.Render()
	fmt.Fprintln(w)
}

func printCounts(w io.Writer, title, label string, counts []models.Count) {
	if len(counts) == 0 {
		return
	}
	t := utils.NewTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{label, "Count"})
	for _, c := range counts {
		t.AppendRow(table.Row{truncate(c.Label, 40), c.N})
	}
	t.Render()
}

func money(f float64) string {
	return fmt.Sprintf("$%.0f", f)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
