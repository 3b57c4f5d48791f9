package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"glassdoor-scraper/models"
)

func TestJobStoreLifecycle(t *testing.T) {
	s := NewJobStore(0)

	job, err := s.Create(models.ScrapeJob{ID: "job-1", RequestedPages: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != models.JobPending {
		t.Errorf("status after Create: got %q, want pending", job.Status)
	}

	if err := s.Update("job-1", 1, 25, models.JobRunning); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Read("job-1")
	if got.PagesCompleted != 1 || got.RecordsFound != 25 || got.Status != models.JobRunning {
		t.Errorf("after Update: got (%d, %d, %q); want (1, 25, running)", got.PagesCompleted, got.RecordsFound, got.Status)
	}
	if got.StartedAt.IsZero() {
		t.Error("StartedAt should be set when the job starts running")
	}

	if err := s.Complete("job-1", JobResult{RecordsFound: 40, Duplicates: 3}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = s.Read("job-1")
	if got.Status != models.JobCompleted || got.RecordsFound != 40 || got.Duplicates != 3 {
		t.Errorf("after Complete: got %+v", got)
	}
}

func TestJobStoreLatestWriteWins(t *testing.T) {
	s := NewJobStore(0)
	_, _ = s.Create(models.ScrapeJob{ID: "j"})

	_ = s.Update("j", 2, 50, models.JobRunning)
	_ = s.Update("j", 1, 10, models.JobRunning)

	got, _ := s.Read("j")
	if got.PagesCompleted != 1 || got.RecordsFound != 10 {
		t.Errorf("got (%d, %d); want (1, 10)", got.PagesCompleted, got.RecordsFound)
	}
}

func TestJobStoreNotFound(t *testing.T) {
	s := NewJobStore(0)

	if _, err := s.Read("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Read: got %v, want ErrJobNotFound", err)
	}
	if err := s.Update("missing", 1, 1, models.JobRunning); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Update: got %v, want ErrJobNotFound", err)
	}
	if err := s.Fail("missing", "x"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Fail: got %v, want ErrJobNotFound", err)
	}
}

func TestJobStoreCreateResetsFinishedJob(t *testing.T) {
	s := NewJobStore(0)
	_, _ = s.Create(models.ScrapeJob{ID: "j"})
	_ = s.Update("j", 2, 40, models.JobRunning)
	_ = s.Fail("j", "boom")

	job, err := s.Create(models.ScrapeJob{ID: "j", RequestedPages: 3})
	if err != nil {
		t.Fatalf("Create over finished job: %v", err)
	}
	if job.PagesCompleted != 0 || job.RecordsFound != 0 || job.Error != "" || job.Status != models.JobPending {
		t.Errorf("job not reset: %+v", job)
	}
}

func TestJobStoreRejectsLiveDuplicate(t *testing.T) {
	s := NewJobStore(0)
	_, _ = s.Create(models.ScrapeJob{ID: "j"})
	_ = s.Update("j", 0, 0, models.JobRunning)

	if _, err := s.Create(models.ScrapeJob{ID: "j"}); !errors.Is(err, ErrJobRunning) {
		t.Errorf("Create: got %v, want ErrJobRunning", err)
	}
}

func TestJobStoreEvictsOldTerminalJobs(t *testing.T) {
	s := NewJobStore(time.Hour)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	_, _ = s.Create(models.ScrapeJob{ID: "old"})
	_ = s.Fail("old", "boom")
	_, _ = s.Create(models.ScrapeJob{ID: "live"})

	clock = clock.Add(2 * time.Hour)
	_, _ = s.Create(models.ScrapeJob{ID: "new"})

	if _, err := s.Read("old"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("old terminal job should be evicted, got %v", err)
	}
	if _, err := s.Read("live"); err != nil {
		t.Errorf("non-terminal job should survive eviction: %v", err)
	}
}

func TestJobStoreConcurrentReadWrite(t *testing.T) {
	s := NewJobStore(0)
	_, _ = s.Create(models.ScrapeJob{ID: "j"})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 1; i <= 200; i++ {
			_ = s.Update("j", i, i*10, models.JobRunning)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			got, _ := s.Read("j")
			if got.RecordsFound != got.PagesCompleted*10 {
				t.Errorf("torn read: pages=%d records=%d", got.PagesCompleted, got.RecordsFound)
				return
			}
		}
	}()
	wg.Wait()
}
