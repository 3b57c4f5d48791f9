package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"

	"glassdoor-scraper/models"
)

func TestBuildInsertPlaceholders(t *testing.T) {
	rows := []models.CleanRecord{
		{IdentityKey: "k1", Title: "A", Skills: []string{"sql"}},
		{IdentityKey: "k2", Title: "B"},
	}

	query, args := buildInsert("job-1", rows)

	if len(args) != 2*pgColumns {
		t.Fatalf("args: got %d, want %d", len(args), 2*pgColumns)
	}
	if !strings.Contains(query, "$40)") {
		t.Error("query should end its second tuple at $40")
	}
	if !strings.Contains(query, "ON CONFLICT (identity_key) DO NOTHING") {
		t.Error("query should skip already archived records")
	}
	if args[1] != "job-1" || args[pgColumns+1] != "job-1" {
		t.Error("every tuple should carry the job id")
	}
}

func TestBuildInsertNilSkillsBecomeEmptyArray(t *testing.T) {
	_, args := buildInsert("j", []models.CleanRecord{{IdentityKey: "k"}})

	arr, ok := args[13].(*pq.StringArray)
	if !ok {
		t.Fatalf("skills arg: got %T, want *pq.StringArray", args[13])
	}
	if *arr == nil {
		t.Error("nil skills must be sent as an empty array, not NULL")
	}
}

func TestBuildInsertCarriesEasyApplyAndDatePosted(t *testing.T) {
	posted := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildInsert("j", []models.CleanRecord{
		{IdentityKey: "k1", EasyApply: true, DatePosted: posted},
		{IdentityKey: "k2"},
	})

	if !strings.Contains(query, "easy_apply, date_posted") {
		t.Error("insert should name the easy_apply and date_posted columns")
	}
	if args[14] != true {
		t.Errorf("easy_apply arg: got %v, want true", args[14])
	}
	if args[15] != posted {
		t.Errorf("date_posted arg: got %v, want %v", args[15], posted)
	}
	if args[pgColumns+15] != nil {
		t.Errorf("unknown posting date: got %v, want NULL", args[pgColumns+15])
	}
}
