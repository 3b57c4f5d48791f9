package glassdoor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"

	"glassdoor-scraper/models"
	"glassdoor-scraper/utils"
)

const locationPath = "/findPopularLocationAjax.htm"

// Candidate tie-break rules, applied in configured order.
const (
	ruleExact      = "exact"
	rulePopulation = "population"
	ruleSimilarity = "similarity"
)

// DefaultLocation is searched when no location query is given.
var DefaultLocation = models.LocationRef{ID: 11047, Type: models.LocationState, Label: "United States"}

var labelSuffixRegexp = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// flexInt decodes ids sent either as JSON numbers or strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("flexInt: %w", err)
	}
	*f = flexInt(n)
	return nil
}

type locationCandidate struct {
	LocationID   flexInt `json:"locationId"`
	LocationType string  `json:"locationType"`
	Label        string  `json:"label"`
	LongName     string  `json:"longName"`
	Population   flexInt `json:"population"`
}

func (lc locationCandidate) name() string {
	if lc.Label != "" {
		return lc.Label
	}
	return lc.LongName
}

// Resolve maps a free-text location to the upstream location id. Results
// are cached on the Client, so repeated queries return the same ref.
func (c *Client) Resolve(ctx context.Context, sess *models.Session, query string) (models.LocationRef, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return DefaultLocation, nil
	}
	key := strings.ToLower(q)

	c.mu.Lock()
	ref, ok := c.locations[key]
	c.mu.Unlock()
	if ok {
		return ref, nil
	}

	var candidates []locationCandidate
	err := c.reqRetry.Do(ctx, "location lookup", func() error {
		resp, err := c.do(ctx, sess, func(r *resty.Request) (*resty.Response, error) {
			return r.SetQueryParams(map[string]string{
				"maxLocationsToReturn": "10",
				"term":                 q,
			}).Get(locationPath)
		})
		if err != nil {
			if IsAuth(err) || ctx.Err() != nil {
				return utils.Permanent(err)
			}
			return err
		}
		if resp.StatusCode() != http.StatusOK {
			serr := &StatusError{Op: "location lookup", Code: resp.StatusCode()}
			if serr.Transient() {
				return serr
			}
			return utils.Permanent(serr)
		}
		if err := json.Unmarshal(resp.Body(), &candidates); err != nil {
			return utils.Permanent(fmt.Errorf("location lookup: decode: %w", err))
		}
		return nil
	})
	if err != nil {
		return models.LocationRef{}, err
	}

	best, ok := pickCandidate(q, candidates, c.opts.TieBreak)
	if !ok {
		return models.LocationRef{}, &LocationNotFoundError{Query: q}
	}

	ref = models.LocationRef{
		Query: q,
		ID:    int64(best.LocationID),
		Type:  locationType(best.LocationType),
		Label: best.name(),
	}
	c.logger.Info("[glassdoor] Resolved location %q -> %s %d (%s)", q, ref.Type, ref.ID, ref.Label)

	c.mu.Lock()
	c.locations[key] = ref
	c.mu.Unlock()
	return ref, nil
}

// pickCandidate narrows candidates rule by rule until one remains; ties that
// survive every rule go to the earliest upstream candidate.
func pickCandidate(query string, candidates []locationCandidate, rules []string) (locationCandidate, bool) {
	pool := make([]locationCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.LocationID > 0 {
			pool = append(pool, cand)
		}
	}
	if len(pool) == 0 {
		return locationCandidate{}, false
	}

	want := normalizeLabel(query)
	for _, rule := range rules {
		if len(pool) == 1 {
			break
		}
		switch rule {
		case ruleExact:
			pool = keepBest(pool, func(lc locationCandidate) float64 {
				if normalizeLabel(lc.Label) == want || normalizeLabel(lc.LongName) == want {
					return 1
				}
				return 0
			})
		case rulePopulation:
			pool = keepBest(pool, func(lc locationCandidate) float64 {
				return float64(lc.Population)
			})
		case ruleSimilarity:
			pool = keepBest(pool, func(lc locationCandidate) float64 {
				return matchr.JaroWinkler(want, normalizeLabel(lc.name()), false)
			})
		}
	}
	return pool[0], true
}

// keepBest returns the candidates sharing the highest score, in order.
func keepBest(pool []locationCandidate, score func(locationCandidate) float64) []locationCandidate {
	best := score(pool[0])
	kept := []locationCandidate{pool[0]}
	for _, cand := range pool[1:] {
		switch s := score(cand); {
		case s > best:
			best = s
			kept = []locationCandidate{cand}
		case s == best:
			kept = append(kept, cand)
		}
	}
	return kept
}

func normalizeLabel(s string) string {
	s = labelSuffixRegexp.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", " ")
	return strings.Join(strings.Fields(s), " ")
}

func locationType(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "C", models.LocationCity:
		return models.LocationCity
	case "S", models.LocationState:
		return models.LocationState
	case "N", models.LocationCountry:
		return models.LocationCountry
	default:
		return models.LocationCity
	}
}
