package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAGES_TO_SCRAPE", "")
	t.Setenv("MAX_PAGES", "")
	t.Setenv("PORT", "")

	cfg := Load()
	if cfg.PagesToScrape != 2 {
		t.Errorf("PagesToScrape: got %d, want 2", cfg.PagesToScrape)
	}
	if cfg.MaxPages != 10 {
		t.Errorf("MaxPages: got %d, want 10", cfg.MaxPages)
	}
	if cfg.HTTPPort != "5000" {
		t.Errorf("HTTPPort: got %q, want %q", cfg.HTTPPort, "5000")
	}
}

func TestLoadJobStartSpacing(t *testing.T) {
	t.Setenv("JOB_START_SPACING", "")
	if got := Load().JobStartSpacing; got != 2*time.Second {
		t.Errorf("JobStartSpacing default: got %v, want 2s", got)
	}

	t.Setenv("JOB_START_SPACING", "250ms")
	if got := Load().JobStartSpacing; got != 250*time.Millisecond {
		t.Errorf("JobStartSpacing: got %v, want 250ms", got)
	}
}

func TestLoadClampsPages(t *testing.T) {
	t.Setenv("PAGES_TO_SCRAPE", "50")
	t.Setenv("MAX_PAGES", "10")

	cfg := Load()
	if cfg.PagesToScrape != 10 {
		t.Errorf("PagesToScrape: got %d, want 10", cfg.PagesToScrape)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		val  string
		want time.Duration
	}{
		{"90s", 90 * time.Second},
		{"45", 45 * time.Second},
		{"nonsense", time.Minute},
		{"", time.Minute},
	}

	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.val)
		got := getEnvDuration("TEST_DURATION", time.Minute)
		if got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v; want %v", tt.val, got, tt.want)
		}
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool(true) = false")
	}
	t.Setenv("TEST_BOOL", "maybe")
	if getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool(maybe) should fall back to false")
	}
}

func TestTieBreakRules(t *testing.T) {
	cfg := &Config{LocationTieBreak: " Exact, population ,,similarity"}
	want := []string{"exact", "population", "similarity"}
	if diff := cmp.Diff(want, cfg.TieBreakRules()); diff != "" {
		t.Errorf("TieBreakRules mismatch (-want +got):\n%s", diff)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "jobs", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=jobs sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
