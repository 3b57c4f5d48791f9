package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSkills is the controlled vocabulary matched against descriptions.
// Each tag lists the spellings that count as a mention.
var DefaultSkills = map[string][]string{
	"excel":      {"excel"},
	"python":     {"python"},
	"r-studio":   {"r-studio", "r studio", "rstudio"},
	"jupyter":    {"jupyter"},
	"spark":      {"spark", "pyspark"},
	"sql":        {"sql"},
	"qlikview":   {"qlikview", "qlik"},
	"power bi":   {"power bi", "powerbi"},
	"tableau":    {"tableau"},
	"knime":      {"knime"},
	"sas":        {"sas"},
	"matlab":     {"matlab"},
	"java":       {"java"},
	"javascript": {"javascript"},
	"aws":        {"aws"},
	"azure":      {"azure"},
	"docker":     {"docker"},
	"kubernetes": {"kubernetes", "k8s"},
}

var spaceRegexp = regexp.MustCompile(`\s+`)

type skillPattern struct {
	tag string
	re  *regexp.Regexp
}

// SkillMatcher tags text with skills from a fixed vocabulary using
// case-insensitive, word-boundary matches. It is safe for concurrent use.
type SkillMatcher struct {
	patterns []skillPattern
}

// NewSkillMatcher compiles a matcher for vocab (tag -> spellings).
func NewSkillMatcher(vocab map[string][]string) *SkillMatcher {
	tags := make([]string, 0, len(vocab))
	for tag := range vocab {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	m := &SkillMatcher{patterns: make([]skillPattern, 0, len(tags))}
	for _, tag := range tags {
		alts := make([]string, 0, len(vocab[tag]))
		for _, spelling := range vocab[tag] {
			words := strings.Fields(strings.ToLower(spelling))
			for i, w := range words {
				words[i] = regexp.QuoteMeta(w)
			}
			alts = append(alts, strings.Join(words, `[\s-]+`))
		}
		re := regexp.MustCompile(`(?i)(?:^|[^\w])(?:` + strings.Join(alts, "|") + `)(?:[^\w]|$)`)
		m.patterns = append(m.patterns, skillPattern{tag: tag, re: re})
	}
	return m
}

// Match returns the sorted set of tags mentioned in text.
func (m *SkillMatcher) Match(text string) []string {
	if text == "" {
		return nil
	}
	text = spaceRegexp.ReplaceAllString(text, " ")

	var found []string
	for _, p := range m.patterns {
		if p.re.MatchString(text) {
			found = append(found, p.tag)
		}
	}
	return found
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
// Input that fails to parse is returned whitespace-normalised.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return normaliseText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return normaliseText(fragment)
	}
	doc.Find("br, p, li, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return normaliseText(doc.Text())
}
