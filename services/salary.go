package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"glassdoor-scraper/models"
)

// Annualization multipliers.
const (
	HoursPerWeek = 40
	WeeksPerYear = 52
	DaysPerWeek  = 5
)

var (
	// salaryNumberRegexp captures a number with an optional thousands suffix
	salaryNumberRegexp = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(k)?`)
	// salaryPhraseRegexp finds a currency-prefixed amount or range in prose.
	// Groups: 1 thousands suffix, 2 range tail, 3 period marker.
	salaryPhraseRegexp = regexp.MustCompile(`(?i)(?:ca|us)?\$\s*\d[\d,]*(?:\.\d+)?\s*(k\b)?` +
		`(\s*(?:-|–|to)\s*(?:ca|us)?\$?\s*\d[\d,]*(?:\.\d+)?\s*(?:k\b)?)?` +
		`(\s*(?:per|/|an|a)\s*(?:hour|hr|year|yr|annum|month|mo|week|wk|day)\b)?`)
	estimateSuffixRegexp = regexp.MustCompile(`(?i)\((?:glassdoor|employer)\s+est\.?\)`)
)

// Salary is a parsed pay range on an annual basis, with the period it was
// originally quoted in.
type Salary struct {
	Min      float64
	Max      float64
	Period   string
	Currency string
}

// ParseStructuredPay reads the upstream's percentile pay fields. p10/p90 form
// the range; p50 alone is treated as a zero-width range.
func ParseStructuredPay(payPeriod, currency string, pay *models.RawPay) (Salary, bool) {
	if pay == nil {
		return Salary{}, false
	}

	lo, hi := positive(pay.P10), positive(pay.P90)
	mid := positive(pay.P50)
	switch {
	case lo > 0 && hi > 0:
	case lo > 0:
		hi = lo
	case hi > 0:
		lo = hi
	case mid > 0:
		lo, hi = mid, mid
	default:
		return Salary{}, false
	}

	period, mult := periodFromCode(payPeriod)
	return finishSalary(lo*mult, hi*mult, period, strings.ToUpper(currency)), true
}

// ParseSalaryText parses free-text pay such as "$85K - $110K (Glassdoor est.)",
// "CA$22 Per Hour" or "$5,000 a month".
func ParseSalaryText(raw string) (Salary, bool) {
	return parseSalary(raw, true)
}

// parseSalary reads a pay string. scaleBare treats annual figures under
// 1000 as thousands ("$85 - $110").
func parseSalary(raw string, scaleBare bool) (Salary, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Salary{}, false
	}
	s = estimateSuffixRegexp.ReplaceAllString(s, "")

	currency := currencyFromText(s)
	period, mult := periodFromText(s)

	matches := salaryNumberRegexp.FindAllStringSubmatch(s, 2)
	if len(matches) == 0 {
		return Salary{}, false
	}

	values := make([]float64, 0, 2)
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || v <= 0 {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		if scaleBare && period == models.PeriodAnnual && v < 1000 {
			v *= 1000
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Salary{}, false
	}

	lo, hi := values[0], values[0]
	if len(values) == 2 {
		hi = values[1]
	}
	return finishSalary(lo*mult, hi*mult, period, currency), true
}

// FindSalaryInText scans prose for the first salary-looking phrase. A bare
// dollar amount is not pay: the phrase needs a thousands suffix, a range or
// a period marker, and annual results under 1000 are rejected.
func FindSalaryInText(text string) (Salary, bool) {
	for _, m := range salaryPhraseRegexp.FindAllStringSubmatch(text, -1) {
		if m[1] == "" && m[2] == "" && m[3] == "" {
			continue
		}
		sal, ok := parseSalary(m[0], false)
		if !ok || (sal.Period == models.PeriodAnnual && sal.Min < 1000) {
			continue
		}
		return sal, true
	}
	return Salary{}, false
}

func finishSalary(lo, hi float64, period, currency string) Salary {
	lo, hi = math.Round(lo), math.Round(hi)
	if lo > hi {
		lo, hi = hi, lo
	}
	return Salary{Min: lo, Max: hi, Period: period, Currency: currency}
}

func periodFromCode(code string) (string, float64) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "HOURLY":
		return models.PeriodHourly, HoursPerWeek * WeeksPerYear
	case "DAILY":
		return models.PeriodDaily, DaysPerWeek * WeeksPerYear
	case "WEEKLY":
		return models.PeriodWeekly, WeeksPerYear
	case "MONTHLY":
		return models.PeriodMonthly, 12
	default:
		return models.PeriodAnnual, 1
	}
}

func periodFromText(s string) (string, float64) {
	switch {
	case containsAny(s, "per hour", "an hour", "/hour", "/hr", "hourly", " hr"):
		return periodFromCode("HOURLY")
	case containsAny(s, "per day", "a day", "/day", "daily"):
		return periodFromCode("DAILY")
	case containsAny(s, "per week", "a week", "/week", "/wk", "weekly"):
		return periodFromCode("WEEKLY")
	case containsAny(s, "per month", "a month", "/month", "/mo", "monthly"):
		return periodFromCode("MONTHLY")
	default:
		return periodFromCode("ANNUAL")
	}
}

func currencyFromText(s string) string {
	switch {
	case strings.Contains(s, "ca$") || strings.Contains(s, "cad"):
		return "CAD"
	case strings.Contains(s, "£"):
		return "GBP"
	case strings.Contains(s, "€"):
		return "EUR"
	case strings.Contains(s, "$"):
		return "USD"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func positive(f *float64) float64 {
	if f == nil || *f <= 0 || math.IsNaN(*f) {
		return 0
	}
	return *f
}
