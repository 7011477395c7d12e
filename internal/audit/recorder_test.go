package audit

import (
	"path/filepath"
	"testing"

	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/store"
)

func TestRecordAttempts(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	r := NewRecorder(s)
	r.RecordAttempts("plan-1", "launch an app", []models.Attempt{
		{Tier: "ollama", OK: false, Reason: "connection refused", ElapsedMS: 12},
		{Tier: "hosted", OK: false, Reason: "hosted api key not configured"},
		{Tier: "fallback", OK: true, ElapsedMS: 2},
	})

	recs, err := s.AttemptsForPlan("plan-1")
	if err != nil {
		t.Fatalf("AttemptsForPlan failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 attempt records, got %d", len(recs))
	}

	if recs[0].Outcome != "failed" || recs[0].Detail != "connection refused" {
		t.Errorf("Unexpected first record: %+v", recs[0])
	}
	if recs[2].Tier != "fallback" || recs[2].Outcome != "ok" {
		t.Errorf("Unexpected last record: %+v", recs[2])
	}

	// Same goal always maps to the same hash, different goals do not
	if recs[0].GoalHash != recs[1].GoalHash {
		t.Error("Attempts from one run carry different goal hashes")
	}
	if recs[0].GoalHash == hashGoal("a different goal") {
		t.Error("Distinct goals share a hash")
	}
	if recs[0].GoalHash != hashGoal("launch an app") {
		t.Error("Goal hash is not reproducible")
	}
}
