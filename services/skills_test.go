package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSkillMatcherMatch(t *testing.T) {
	m := NewSkillMatcher(DefaultSkills)

	tests := []struct {
		text string
		want []string
	}{
		{"Strong SQL and Python skills; Tableau a plus.", []string{"python", "sql", "tableau"}},
		{"Experience with JavaScript frameworks", []string{"javascript"}},
		{"Java, Spring and Docker", []string{"docker", "java"}},
		{"Dashboards in Power   BI or PowerBI", []string{"power bi"}},
		{"Knowledge of R Studio", []string{"r-studio"}},
		{"MySQL administration", nil},
		{"Deploys to K8S on AZURE", []string{"azure", "kubernetes"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := m.Match(tt.text)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Match(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Build <b>pipelines</b></p><ul><li>SQL</li><li>Spark</li></ul>", "Build pipelines SQL Spark"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"  plain   text  ", "plain text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
