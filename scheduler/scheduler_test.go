package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"glassdoor-scraper/models"
	"glassdoor-scraper/services"
	"glassdoor-scraper/utils"
)

type recorder struct {
	mu   sync.Mutex
	reqs []services.ScrapeRequest
	fail bool
}

func (r *recorder) Submit(_ context.Context, req services.ScrapeRequest) (models.ScrapeJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.fail {
		return models.ScrapeJob{}, errors.New("busy")
	}
	return models.ScrapeJob{ID: "j", Keywords: req.Keywords}, nil
}

func TestParseSearches(t *testing.T) {
	got, err := ParseSearches(" data engineer | Austin, TX | 3 ; analyst|Toronto||1AbCdEfGhIjKlMnOpQrStUvWxYz;; ")
	if err != nil {
		t.Fatalf("ParseSearches: %v", err)
	}
	want := []services.ScrapeRequest{
		{Keywords: "data engineer", Location: "Austin, TX", Pages: 3},
		{Keywords: "analyst", Location: "Toronto", SpreadsheetID: "1AbCdEfGhIjKlMnOpQrStUvWxYz"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSearches (-want +got):\n%s", diff)
	}
}

func TestParseSearchesErrors(t *testing.T) {
	for _, raw := range []string{"a|b|three", "a|b|1|c|extra"} {
		if _, err := ParseSearches(raw); err == nil {
			t.Errorf("ParseSearches(%q): expected an error", raw)
		}
	}
	got, err := ParseSearches("")
	if err != nil || len(got) != 0 {
		t.Errorf("ParseSearches(\"\") = %v, %v; want empty", got, err)
	}
}

func TestRunOnceSubmitsEverySearch(t *testing.T) {
	rec := &recorder{fail: true}
	searches := []services.ScrapeRequest{{Keywords: "a"}, {Keywords: "b"}}
	s := New("@every 1h", searches, rec, utils.NewTestLogger())

	s.RunOnce(context.Background())

	if len(rec.reqs) != 2 {
		t.Errorf("submitted %d searches, want 2 even when submits fail", len(rec.reqs))
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New("not a schedule", []services.ScrapeRequest{{Keywords: "a"}}, &recorder{}, utils.NewTestLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected an error for an invalid cron spec")
	}
}

func TestStartStop(t *testing.T) {
	s := New("@every 1h", []services.ScrapeRequest{{Keywords: "a"}}, &recorder{}, utils.NewTestLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
