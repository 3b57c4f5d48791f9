package storage

import (
	"context"

	"glassdoor-scraper/models"
)

// Batch is an ordered set of cleaned rows bound for one destination.
type Batch struct {
	JobID         string
	Keywords      string
	SpreadsheetID string
	Worksheet     string
	Rows          []models.CleanRecord
}

// Result describes where a batch ended up.
type Result struct {
	Location  string
	Worksheet string
	Rows      int
}

// Sink is the interface any output backend must satisfy.
type Sink interface {
	Write(ctx context.Context, batch Batch) (Result, error)
}

// Validator is implemented by sinks that can check a destination before a
// job is accepted.
type Validator interface {
	Validate(ctx context.Context, spreadsheetID string) error
}

// RecordReader is implemented by sinks that can read their rows back.
type RecordReader interface {
	FetchAll(ctx context.Context) ([]models.CleanRecord, error)
}
