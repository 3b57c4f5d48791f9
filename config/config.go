package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency  int
	JobStartSpacing time.Duration
	RateLimitMs     int
	MaxRetries     int
	PagesToScrape  int
	MaxPages       int

	DefaultKeywords string
	DefaultLocation string

	BaseURL           string
	HTTPTimeout       time.Duration
	SessionTTL        time.Duration
	SessionAttempts   int
	FallbackCSRFToken string
	CloudflareBypass  bool
	LocationTieBreak  string

	BrowserFallback bool
	ChromeBin       string

	ExportDir string

	SheetsCredentials     string
	SheetsCredentialsFile string

	HTTPPort     string
	JobRetention time.Duration
	LogLevel     string

	Schedule          string
	ScheduledSearches string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "jobs_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		JobStartSpacing: getEnvDuration("JOB_START_SPACING", 2*time.Second),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 1500),
		MaxRetries:      getEnvInt("PAGE_RETRIES", 3),
		PagesToScrape:   getEnvInt("PAGES_TO_SCRAPE", 2),
		MaxPages:        getEnvInt("MAX_PAGES", 10),

		DefaultKeywords: getEnv("DEFAULT_KEYWORDS", "data analyst"),
		DefaultLocation: getEnv("DEFAULT_LOCATION", "Canada"),

		BaseURL:           strings.TrimRight(getEnv("GLASSDOOR_BASE_URL", "https://www.glassdoor.com"), "/"),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionAttempts:   getEnvInt("SESSION_ATTEMPTS", 3),
		FallbackCSRFToken: getEnv("FALLBACK_CSRF_TOKEN", ""),
		CloudflareBypass:  getEnvBool("CLOUDFLARE_BYPASS", true),
		LocationTieBreak:  getEnv("LOCATION_TIE_BREAK", "exact,population,similarity"),

		BrowserFallback: getEnvBool("BROWSER_FALLBACK", false),
		ChromeBin:       getEnv("CHROME_BIN", ""),

		ExportDir: getEnv("EXPORT_DIR", "./output"),

		SheetsCredentials:     getEnv("GOOGLE_SHEETS_CREDENTIALS", ""),
		SheetsCredentialsFile: getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", ""),

		HTTPPort:     getEnv("PORT", "5000"),
		JobRetention: getEnvDuration("JOB_RETENTION", 24*time.Hour),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		Schedule:          getEnv("SCHEDULE", ""),
		ScheduledSearches: getEnv("SCHEDULED_SEARCHES", ""),
	}

	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.PagesToScrape < 1 || cfg.PagesToScrape > cfg.MaxPages {
		cfg.PagesToScrape = cfg.MaxPages
	}
	return cfg
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// SheetsEnabled reports whether Google Sheets credentials were configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsCredentials != "" || c.SheetsCredentialsFile != ""
}

// TieBreakRules splits LocationTieBreak into its ordered rule names.
func (c *Config) TieBreakRules() []string {
	var rules []string
	for _, r := range strings.Split(c.LocationTieBreak, ",") {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			rules = append(rules, r)
		}
	}
	return rules
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
