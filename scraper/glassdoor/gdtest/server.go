// Package gdtest provides a fake Glassdoor upstream for tests.
package gdtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"glassdoor-scraper/models"
)

// DefaultToken is the anti-forgery token issued by the session page.
const DefaultToken = "test-csrf-token"

// Location is a candidate returned by the fake location lookup.
type Location struct {
	LocationID   int64  `json:"locationId"`
	LocationType string `json:"locationType"`
	Label        string `json:"label"`
	LongName     string `json:"longName"`
	Population   int64  `json:"population,omitempty"`
}

// SearchCall records the variables of one search request.
type SearchCall struct {
	PageNumber int
	Offset     int
	Cursor     string
	Keyword    string
	LocationID int64
	Token      string
}

// Server is an httptest server speaking the session, location and search
// endpoints. Configure exported fields before issuing requests.
type Server struct {
	*httptest.Server

	Token     string
	Locations map[string][]Location
	Pages     [][]models.RawRecord
	Total     int

	// SessionFailures makes the next n session page requests fail with 503.
	SessionFailures int
	// NoToken serves a session page without a token.
	NoToken bool
	// FailPages maps a page number to the number of 503s served before it
	// succeeds; a negative count fails the page forever.
	FailPages map[int]int
	// GarbledPages answers these page numbers with a body that is not JSON.
	GarbledPages map[int]bool
	// RejectSearches answers the next n search requests with 403.
	RejectSearches int
	// RotateTo is issued as a new token on the first search response.
	RotateTo string

	mu            sync.Mutex
	valid         map[string]bool
	sessionCalls  int
	locationCalls int
	searches      []SearchCall
	rotated       bool
}

// New starts a fake upstream with one location ("Austin, TX") and no pages.
func New() *Server {
	s := &Server{
		Token: DefaultToken,
		Locations: map[string][]Location{
			"austin, tx": {{LocationID: 1139761, LocationType: "C", Label: "Austin, TX (US)", LongName: "Austin, TX (US)"}},
		},
		FailPages:    map[int]int{},
		GarbledPages: map[int]bool{},
		valid:        map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/Job/computer-science-jobs.htm", s.handleSession)
	mux.HandleFunc("/findPopularLocationAjax.htm", s.handleLocation)
	mux.HandleFunc("/graph", s.handleGraph)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessionCalls++
	if s.SessionFailures > 0 {
		s.SessionFailures--
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	if s.GarbledPages[v.PageNumber] {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("<html>not json</html>"))
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "GSESSIONID", Value: fmt.Sprintf("sess-%d", s.sessionCalls), Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	if s.NoToken {
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
		return
	}
	s.valid[s.Token] = true
	fmt.Fprintf(w, `<html><script>window.gdGlobals = {"token": "%s", "page": "srp"};</script></html>`, s.Token)
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locationCalls++
	if !s.valid[r.Header.Get("gd-csrf-token")] {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("term")))
	locs := s.Locations[term]
	if locs == nil {
		locs = []Location{}
	}
	writeJSON(w, locs)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := r.Header.Get("gd-csrf-token")
	if s.RejectSearches > 0 {
		s.RejectSearches--
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if !s.valid[token] {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req []struct {
		Variables struct {
			Keyword    string  `json:"keyword"`
			LocationID int64   `json:"locationId"`
			PageNumber int     `json:"pageNumber"`
			Offset     int     `json:"offset"`
			PageCursor *string `json:"pageCursor"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	v := req[0].Variables

	call := SearchCall{PageNumber: v.PageNumber, Offset: v.Offset, Keyword: v.Keyword, LocationID: v.LocationID, Token: token}
	if v.PageCursor != nil {
		call.Cursor = *v.PageCursor
	}
	s.searches = append(s.searches, call)

	if n, ok := s.FailPages[v.PageNumber]; ok && n != 0 {
		if n > 0 {
			s.FailPages[v.PageNumber] = n - 1
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	if s.RotateTo != "" && !s.rotated {
		s.rotated = true
		s.valid = map[string]bool{s.RotateTo: true}
		w.Header().Set("gd-csrf-token", s.RotateTo)
	}

	var records []models.RawRecord
	if i := v.PageNumber - 1; i >= 0 && i < len(s.Pages) {
		records = s.Pages[i]
	}

	type listing struct {
		Jobview models.RawRecord `json:"jobview"`
	}
	listings := make([]listing, 0, len(records))
	for _, rec := range records {
		listings = append(listings, listing{Jobview: rec})
	}

	cursors := []map[string]any{}
	if v.PageNumber < len(s.Pages) {
		cursors = append(cursors, map[string]any{
			"cursor":     fmt.Sprintf("cursor-%d", v.PageNumber+1),
			"pageNumber": v.PageNumber + 1,
		})
	}

	writeJSON(w, []map[string]any{{
		"data": map[string]any{
			"jobListings": map[string]any{
				"jobListings":       listings,
				"paginationCursors": cursors,
				"totalJobsCount":    s.Total,
			},
		},
	}})
}

// SessionCalls returns how many times the session page was requested.
func (s *Server) SessionCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionCalls
}

// LocationCalls returns how many location lookups were served.
func (s *Server) LocationCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationCalls
}

// Searches returns the recorded search requests in order.
func (s *Server) Searches() []SearchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SearchCall(nil), s.searches...)
}

// Listing builds a raw record with the mandatory fields set.
func Listing(id int64, title, company, location string) models.RawRecord {
	return models.RawRecord{
		Header: models.RawHeader{
			EmployerNameFromSearch: company,
			Employer:               &models.RawEmployer{ID: 500 + id, Name: company},
			JobTitleText:           title,
			LocationName:           location,
		},
		Job: models.RawJob{
			ListingID:    id,
			JobTitleText: title,
			Description:  "<p>Work with SQL and Python.</p>",
		},
	}
}

// Listings builds n listings with ids from first to first+n-1.
func Listings(first int64, n int, company, location string) []models.RawRecord {
	out := make([]models.RawRecord, 0, n)
	for i := int64(0); i < int64(n); i++ {
		id := first + i
		out = append(out, Listing(id, fmt.Sprintf("Data Engineer %d", id), company, location))
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
