package glassdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

// PageSize is the number of listings requested per page.
const PageSize = 30

// SearchOptions selects what a Pager fetches.
type SearchOptions struct {
	Keywords string
	MaxPages int
	// StartPage restarts a search from a 1-based page number.
	StartPage int
}

// Page is one batch of raw listings.
type Page struct {
	Number  int
	Offset  int
	Total   int
	Records []models.RawRecord
}

// Pager walks search result pages lazily. It stops at MaxPages, on an empty
// page, or once the upstream's total count has been fetched. A page that
// cannot be fetched ends the walk and is reported by Shortfall.
type Pager struct {
	c    *Client
	sess *models.Session
	loc  models.LocationRef
	opts SearchOptions

	index     int
	cursor    *string
	last      bool
	done      bool
	page      Page
	err       error
	shortfall *PageFetchError
}

// Search returns a Pager over the results for keywords in loc. sess is
// updated in place when the token rotates or is renegotiated.
func (c *Client) Search(sess *models.Session, loc models.LocationRef, opts SearchOptions) *Pager {
	start := opts.StartPage
	if start < 1 {
		start = 1
	}
	return &Pager{c: c, sess: sess, loc: loc, opts: opts, index: start - 1}
}

// Next fetches the next page, returning false when the walk is over.
func (p *Pager) Next(ctx context.Context) bool {
	if p.done || p.last || p.index >= p.opts.MaxPages {
		p.done = true
		return false
	}

	if err := p.c.Ensure(ctx, p.sess); err != nil {
		p.err = err
		p.done = true
		return false
	}

	page, next, attempts, err := p.c.fetchPage(ctx, p.sess, p.loc, p.opts.Keywords, p.index, p.cursor)
	if err != nil {
		if IsAuth(err) {
			p.err = err
		} else {
			p.shortfall = &PageFetchError{Page: p.index + 1, Attempts: attempts, Err: err}
			p.c.logger.Warn("[glassdoor] %v, stopping early", p.shortfall)
		}
		p.done = true
		return false
	}
	if len(page.Records) == 0 {
		p.c.logger.Info("[glassdoor] Page %d returned 0 listings, stopping", page.Number)
		p.done = true
		return false
	}

	p.page = page
	p.index++
	p.cursor = next
	if page.Total > 0 && page.Offset+len(page.Records) >= page.Total {
		p.last = true
	}
	return true
}

// Page returns the page fetched by the last successful Next.
func (p *Pager) Page() Page { return p.page }

// Err returns the fatal error that ended the walk, if any.
func (p *Pager) Err() error { return p.err }

// Shortfall returns the page failure that ended the walk early, if any.
func (p *Pager) Shortfall() *PageFetchError { return p.shortfall }

// fetchPage requests one zero-based page index, retrying transient failures.
// It also reports how many requests were made.
func (c *Client) fetchPage(ctx context.Context, sess *models.Session, loc models.LocationRef,
	keywords string, index int, cursor *string) (Page, *string, int, error) {

	payload := []graphRequest{{
		OperationName: operationName,
		Variables: searchVariables{
			ExcludeJobListingIDs: []int64{},
			FilterParams:         []string{},
			Keyword:              keywords,
			NumJobsToShow:        PageSize,
			LocationType:         loc.Type,
			LocationID:           loc.ID,
			ParameterURLInput:    fmt.Sprintf("IL.0,12_I%s%d", loc.Type, loc.ID),
			PageNumber:           index + 1,
			PageCursor:           cursor,
			Offset:               index * PageSize,
			Sort:                 "date",
		},
		Query: searchQuery,
	}}

	var (
		decoded  []graphResponse
		attempts int
	)
	err := c.reqRetry.Do(ctx, fmt.Sprintf("search page %d", index+1), func() error {
		attempts++
		resp, err := c.do(ctx, sess, func(r *resty.Request) (*resty.Response, error) {
			return r.SetHeader("content-type", "application/json").SetBody(payload).Post(graphPath)
		})
		if err != nil {
			if IsAuth(err) || ctx.Err() != nil {
				return utils.Permanent(err)
			}
			return err
		}
		if resp.StatusCode() != http.StatusOK {
			serr := &StatusError{Op: "search", Code: resp.StatusCode()}
			if serr.Transient() {
				return serr
			}
			return utils.Permanent(serr)
		}
		decoded = nil
		if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
			return utils.Permanent(fmt.Errorf("search: decode: %w", err))
		}
		return nil
	})
	if err != nil {
		return Page{}, nil, attempts, err
	}

	if len(decoded) == 0 {
		return Page{}, nil, attempts, errors.New("search: empty response")
	}
	res := decoded[0]
	if res.Data == nil {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Message)
		}
		return Page{}, nil, attempts, fmt.Errorf("search: no data: %s", strings.Join(msgs, "; "))
	}

	listings := res.Data.JobListings
	page := Page{
		Number:  index + 1,
		Offset:  index * PageSize,
		Total:   listings.TotalJobsCount,
		Records: make([]models.RawRecord, 0, len(listings.JobListings)),
	}
	for _, l := range listings.JobListings {
		page.Records = append(page.Records, l.Jobview)
	}

	var next *string
	for _, pc := range listings.PaginationCursors {
		if pc.PageNumber == index+2 && pc.Cursor != "" {
			cur := pc.Cursor
			next = &cur
			break
		}
	}

	c.logger.Debug("[glassdoor] Page %d: %d listings (total %d)", page.Number, len(page.Records), page.Total)
	return page, next, attempts, nil
}
