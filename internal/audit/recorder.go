// Package audit persists the generation attempt trail behind each plan,
// keyed by a hash of the goal text rather than the text itself.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/store"
)

// Recorder writes generation attempts to the store. It serves as the
// selector's attempt sink; recording failures are logged and swallowed so
// they can never fail a plan request.
type Recorder struct {
	store *store.Store
}

// NewRecorder creates a new attempt recorder.
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

// RecordAttempts persists one attempt row per tier tried.
func (r *Recorder) RecordAttempts(planID, goalText string, attempts []models.Attempt) {
	hash := hashGoal(goalText)
	for _, att := range attempts {
		outcome := "failed"
		if att.OK {
			outcome = "ok"
		}
		if _, err := r.store.RecordAttempt(planID, hash, att.Tier, outcome, att.Reason, att.ElapsedMS); err != nil {
			log.Printf("audit: record %s attempt: %v", att.Tier, err)
		}
	}
}

// hashGoal creates a SHA256 hash of the goal text for correlation.
func hashGoal(goal string) string {
	hash := sha256.Sum256([]byte(goal))
	return hex.EncodeToString(hash[:])
}
