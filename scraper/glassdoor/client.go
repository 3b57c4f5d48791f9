package glassdoor

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"glassdoor-scraper/config"
	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

const (
	csrfHeader = "gd-csrf-token"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
)

// Options configures a Client.
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	RateLimit        time.Duration
	CloudflareBypass bool

	SessionTTL        time.Duration
	SessionAttempts   int
	FallbackCSRFToken string
	Browser           TokenFetcher

	PageRetries int
	RetryDelay  time.Duration

	// TieBreak orders the location candidate rules: exact, population, similarity.
	TieBreak []string

	Logger *utils.Logger
}

// OptionsFromConfig maps application config onto client options.
func OptionsFromConfig(cfg *config.Config, logger *utils.Logger) Options {
	opts := Options{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.HTTPTimeout,
		RateLimit:         time.Duration(cfg.RateLimitMs) * time.Millisecond,
		CloudflareBypass:  cfg.CloudflareBypass,
		SessionTTL:        cfg.SessionTTL,
		SessionAttempts:   cfg.SessionAttempts,
		FallbackCSRFToken: cfg.FallbackCSRFToken,
		PageRetries:       cfg.MaxRetries,
		RetryDelay:        2 * time.Second,
		TieBreak:          cfg.TieBreakRules(),
		Logger:            logger,
	}
	if cfg.BrowserFallback {
		opts.Browser = &ChromeFetcher{ChromeBin: cfg.ChromeBin, Logger: logger}
	}
	return opts
}

// Client talks to the Glassdoor job search endpoints. A Client carries its
// own cookie jar and location cache, so each job should use its own.
type Client struct {
	opts      Options
	base      *url.URL
	http      *resty.Client
	logger    *utils.Logger
	sessRetry *utils.RetryConfig
	reqRetry  *utils.RetryConfig
	now       func() time.Time

	mu        sync.Mutex
	locations map[string]models.LocationRef
}

// New builds a Client with a paced, cookie-aware HTTP transport.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.glassdoor.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.SessionAttempts < 1 {
		opts.SessionAttempts = 3
	}
	if opts.PageRetries < 1 {
		opts.PageRetries = 3
	}
	if len(opts.TieBreak) == 0 {
		opts.TieBreak = []string{ruleExact, rulePopulation, ruleSimilarity}
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewTestLogger()
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("glassdoor: parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("glassdoor: cookie jar: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseURL)
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeaders(map[string]string{
		"accept":                       "*/*",
		"accept-language":              "en-US,en;q=0.9",
		"apollographql-client-name":    "job-search-next",
		"apollographql-client-version": "4.65.5",
		"origin":                       opts.BaseURL,
		"referer":                      opts.BaseURL + "/",
		"sec-fetch-dest":               "empty",
		"sec-fetch-mode":               "cors",
		"sec-fetch-site":               "same-origin",
		"user-agent":                   userAgent,
	})

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Every(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &Client{
		opts:   opts,
		base:   base,
		http:   httpClient,
		logger: opts.Logger,
		sessRetry: &utils.RetryConfig{
			MaxAttempts: opts.SessionAttempts,
			BaseDelay:   opts.RetryDelay,
			Logger:      opts.Logger,
		},
		reqRetry: &utils.RetryConfig{
			MaxAttempts: opts.PageRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      opts.Logger,
		},
		now:       time.Now,
		locations: make(map[string]models.LocationRef),
	}, nil
}

// BaseURL returns the upstream root used for links.
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// do sends a request carrying the session's anti-forgery token. A rejected
// token triggers one transparent renegotiation and replay; a second
// rejection is returned as an AuthError.
func (c *Client) do(ctx context.Context, sess *models.Session, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	for attempt := 0; ; attempt++ {
		req := c.http.R().SetContext(ctx).SetHeader(csrfHeader, sess.CSRFToken)
		resp, err := send(req)
		if err != nil {
			return nil, err
		}
		c.rotate(sess, resp)

		if !tokenRejected(resp) {
			return resp, nil
		}
		if attempt > 0 {
			return nil, &AuthError{
				Attempts: attempt + 1,
				Err:      fmt.Errorf("token rejected with status %d", resp.StatusCode()),
			}
		}

		c.logger.Warn("[glassdoor] Token rejected (HTTP %d), renegotiating session", resp.StatusCode())
		fresh, err := c.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		*sess = *fresh
	}
}
