// Package api exposes scrape jobs over HTTP.
//
// Routes:
//
//	POST /jobs               → start a scrape job (JSON or form body)
//	GET  /jobs/{id}          → job progress
//	GET  /jobs/{id}/export   → CSV download of a finished job
//	GET  /health             → liveness
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"glassdoor-scraper/models"
	"glassdoor-scraper/services"
	"glassdoor-scraper/utils"
)

// JobRunner is the part of the scrape service the API needs.
type JobRunner interface {
	Submit(ctx context.Context, req services.ScrapeRequest) (models.ScrapeJob, error)
	Progress(id string) (models.ScrapeJob, error)
}

type Server struct {
	runner JobRunner
	logger *utils.Logger
	mux    *http.ServeMux
}

func NewServer(runner JobRunner, logger *utils.Logger) *Server {
	s := &Server{runner: runner, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /jobs", s.handleStart)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleProgress)
	s.mux.HandleFunc("GET /jobs/{id}/export", s.handleExport)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		s.logger.Debug("[api] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[api] Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("[api] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}

type startRequest struct {
	JobID         string      `json:"job_id"`
	Keywords      string      `json:"keywords"`
	Location      string      `json:"location"`
	Pages         json.Number `json:"pages"`
	SpreadsheetID string      `json:"spreadsheet_id"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			jsonError(w, "invalid form body", http.StatusBadRequest)
			return
		}
		body = startRequest{
			JobID:         r.PostForm.Get("job_id"),
			Keywords:      r.PostForm.Get("keywords"),
			Location:      r.PostForm.Get("location"),
			Pages:         json.Number(strings.TrimSpace(r.PostForm.Get("pages"))),
			SpreadsheetID: r.PostForm.Get("spreadsheet_id"),
		}
	}

	var pages int
	if body.Pages != "" {
		n, err := strconv.Atoi(body.Pages.String())
		if err != nil {
			jsonError(w, "pages must be a whole number", http.StatusBadRequest)
			return
		}
		pages = n
	}

	job, err := s.runner.Submit(r.Context(), services.ScrapeRequest{
		JobID:         body.JobID,
		Keywords:      body.Keywords,
		Location:      body.Location,
		Pages:         pages,
		SpreadsheetID: body.SpreadsheetID,
	})
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, services.ErrJobRunning):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("[api] Submit failed: %v", err)
		jsonError(w, "could not start job", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	job, err := s.runner.Progress(r.PathValue("id"))
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	job, err := s.runner.Progress(r.PathValue("id"))
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if job.Status != models.JobCompleted || job.ExportPath == "" {
		jsonError(w, "no export available for this job", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(job.ExportPath)))
	http.ServeFile(w, r, job.ExportPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "glassdoor-scraper",
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
