package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"glassdoor-scraper/models"
)

var (
	remoteRegexp = regexp.MustCompile(`(?i)\b(?:fully\s+)?(?:remote|work\s+from\s+home|wfh|telecommute)\b`)
	hybridRegexp = regexp.MustCompile(`(?i)\bhybrid(?:\s+remote)?\b`)
	onSiteRegexp = regexp.MustCompile(`(?i)\b(?:on-?site|in-?office)\b`)
	parenRegexp  = regexp.MustCompile(`\([^)]*\)`)
	zipRegexp    = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	postalRegexp = regexp.MustCompile(`(?i)\b[a-z]\d[a-z]\s?\d[a-z]\d\b`)
	leadingIn    = regexp.MustCompile(`(?i)^\s*in\s+`)
	// separatorRegexp matches dangling joiners left after removing qualifiers
	separatorRegexp = regexp.MustCompile(`^[\s,/\-–|·]+|[\s,/\-–|·]+$|\s+[/\-–|·]+\s+`)
)

// NormalizeLocation converts an upstream location string to "City, State" or
// "City, Country" form and reports the work setting found in qualifiers
// (remote, hybrid, on-site) or "" when none is present.
func NormalizeLocation(raw string) (string, string) {
	s := normaliseText(raw)
	if s == "" {
		return "", ""
	}

	setting := ""
	switch {
	case hybridRegexp.MatchString(s):
		setting = models.SettingHybrid
	case remoteRegexp.MatchString(s):
		setting = models.SettingRemote
	case onSiteRegexp.MatchString(s):
		setting = models.SettingOnSite
	}

	s = hybridRegexp.ReplaceAllString(s, " ")
	s = remoteRegexp.ReplaceAllString(s, " ")
	s = onSiteRegexp.ReplaceAllString(s, " ")
	s = leadingIn.ReplaceAllString(s, "")
	s = parenRegexp.ReplaceAllString(s, " ")
	s = zipRegexp.ReplaceAllString(s, " ")
	s = postalRegexp.ReplaceAllString(s, " ")
	s = separatorRegexp.ReplaceAllString(s, ",")

	parts := make([]string, 0, 3)
	for _, p := range strings.Split(s, ",") {
		if p = strings.Trim(normaliseText(p), "-/|· "); p != "" {
			parts = append(parts, p)
		}
	}

	switch {
	case len(parts) == 0:
		if setting == models.SettingRemote {
			return "Remote", setting
		}
		return "", setting
	case len(parts) > 2:
		parts = []string{parts[0], parts[len(parts)-1]}
	}

	for i, p := range parts {
		parts[i] = canonicalPart(p)
	}
	return strings.Join(parts, ", "), setting
}

// WorkSettingFromText scans free text for a work-setting hint.
func WorkSettingFromText(text string) string {
	switch {
	case hybridRegexp.MatchString(text):
		return models.SettingHybrid
	case remoteRegexp.MatchString(text):
		return models.SettingRemote
	default:
		return models.SettingOnSite
	}
}

// canonicalPart upper-cases region codes ("tx" -> "TX") and title-cases
// all-lower or all-upper words.
func canonicalPart(p string) string {
	if len(p) == 2 && isLetters(p) {
		return strings.ToUpper(p)
	}
	if p != strings.ToLower(p) && p != strings.ToUpper(p) {
		return p
	}
	words := strings.Fields(strings.ToLower(p))
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[n:]
	}
	return strings.Join(words, " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
