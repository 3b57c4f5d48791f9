package glassdoor

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"

	"glassdoor-scraper/models"
)

const (
	sessionPath = "/Job/computer-science-jobs.htm"
	// rejectionMarker appears in bodies when the upstream refuses a stale token.
	rejectionMarker = "INVALID_CSRF_TOKEN"
)

var tokenRegexp = regexp.MustCompile(`"token":\s*"([^"]+)"`)

// sessionCookies are the cookie names the upstream uses for its session id.
var sessionCookies = []string{"GSESSIONID", "gdsid", "JSESSIONID"}

// Acquire negotiates a fresh session. HTTP negotiation is tried a bounded
// number of times, then the browser fallback and the configured fallback
// token if either is available.
func (c *Client) Acquire(ctx context.Context) (*models.Session, error) {
	var sess *models.Session
	err := c.sessRetry.Do(ctx, "session negotiation", func() error {
		s, err := c.negotiate(ctx)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err == nil {
		c.logger.Info("[glassdoor] Session acquired (token %s...)", preview(sess.CSRFToken))
		return sess, nil
	}
	if ctx.Err() != nil {
		return nil, &AuthError{Attempts: c.opts.SessionAttempts, Err: ctx.Err()}
	}

	if c.opts.Browser != nil {
		c.logger.Warn("[glassdoor] HTTP negotiation failed (%v), trying headless browser", err)
		token, berr := c.opts.Browser.FetchToken(ctx, c.opts.BaseURL+sessionPath)
		if berr == nil && token != "" {
			return c.newSession(token), nil
		}
		c.logger.Warn("[glassdoor] Browser negotiation failed: %v", berr)
	}

	if c.opts.FallbackCSRFToken != "" {
		c.logger.Warn("[glassdoor] Using configured fallback csrf token")
		return c.newSession(c.opts.FallbackCSRFToken), nil
	}

	return nil, &AuthError{Attempts: c.opts.SessionAttempts, Err: err}
}

// Ensure renegotiates sess in place when it has expired.
func (c *Client) Ensure(ctx context.Context, sess *models.Session) error {
	if !sess.Expired(c.now()) {
		return nil
	}
	c.logger.Info("[glassdoor] Session expired, renegotiating")
	fresh, err := c.Acquire(ctx)
	if err != nil {
		return err
	}
	*sess = *fresh
	return nil
}

func (c *Client) negotiate(ctx context.Context) (*models.Session, error) {
	resp, err := c.http.R().SetContext(ctx).Get(sessionPath)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{Op: "session page", Code: resp.StatusCode()}
	}

	m := tokenRegexp.FindSubmatch(resp.Body())
	if m == nil {
		return nil, errNoToken
	}
	return c.newSession(string(m[1])), nil
}

func (c *Client) newSession(csrf string) *models.Session {
	now := c.now()
	return &models.Session{
		Token:      c.sessionCookie(),
		CSRFToken:  csrf,
		AcquiredAt: now,
		ExpiresAt:  now.Add(c.opts.SessionTTL),
	}
}

func (c *Client) sessionCookie() string {
	jar := c.http.GetClient().Jar
	if jar == nil {
		return ""
	}
	cookies := jar.Cookies(c.base)
	for _, name := range sessionCookies {
		for _, ck := range cookies {
			if ck.Name == name {
				return ck.Value
			}
		}
	}
	return ""
}

// rotate adopts a new anti-forgery token when the upstream issues one.
func (c *Client) rotate(sess *models.Session, resp *resty.Response) {
	token := strings.TrimSpace(resp.Header().Get(csrfHeader))
	if token == "" || token == sess.CSRFToken {
		return
	}
	c.logger.Debug("[glassdoor] CSRF token rotated")
	sess.CSRFToken = token
	if ck := c.sessionCookie(); ck != "" {
		sess.Token = ck
	}
}

func tokenRejected(resp *resty.Response) bool {
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return strings.Contains(string(resp.Body()), rejectionMarker)
}

func preview(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:12]
}
