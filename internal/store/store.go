// Package store provides SQLite-backed persistence for Planora.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/planora/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the Planora SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Set connection pool settings for concurrent access
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations. The full plan document is
// stored as a JSON payload so a fetched plan serves back byte-identical;
// the scalar columns exist for listing and filtering only.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		goal TEXT NOT NULL,
		category TEXT NOT NULL,
		method TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		task_count INTEGER NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generation_attempts (
		id TEXT PRIMARY KEY,
		plan_id TEXT,
		goal_hash TEXT NOT NULL,
		tier TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		elapsed_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);
	CREATE INDEX IF NOT EXISTS idx_attempts_plan_id ON generation_attempts(plan_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_goal_hash ON generation_attempts(goal_hash);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Plan Operations ---

// SavePlan persists a complete plan document.
func (s *Store) SavePlan(plan *models.Plan) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("plan must have an id")
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO plans (id, goal, category, method, duration_days, task_count, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.Goal, plan.Category, string(plan.Method), plan.DurationDays, len(plan.Tasks), string(payload), plan.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a plan by ID. Returns nil without error when no plan
// has that ID.
func (s *Store) GetPlan(id string) (*models.Plan, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM plans WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}

	var plan models.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, fmt.Errorf("decode plan payload: %w", err)
	}
	return &plan, nil
}

// ListPlans returns summaries of the most recent plans, newest first.
func (s *Store) ListPlans(limit int) ([]models.PlanSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, goal, category, method, duration_days, task_count, created_at FROM plans ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var summaries []models.PlanSummary
	for rows.Next() {
		var sum models.PlanSummary
		var method string
		if err := rows.Scan(&sum.ID, &sum.Goal, &sum.Category, &method, &sum.DurationDays, &sum.TaskCount, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan summary: %w", err)
		}
		sum.Method = models.Method(method)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeletePlan removes a plan and reports whether a row existed. Attempt
// records are kept; they document generation history, not plans.
func (s *Store) DeletePlan(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

// --- Attempt Operations ---

// RecordAttempt writes one generation attempt record.
func (s *Store) RecordAttempt(planID, goalHash, tier, outcome, detail string, elapsedMS int64) (*models.AttemptRecord, error) {
	rec := &models.AttemptRecord{
		ID:        uuid.New().String(),
		PlanID:    planID,
		GoalHash:  goalHash,
		Tier:      tier,
		Outcome:   outcome,
		Detail:    detail,
		ElapsedMS: elapsedMS,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO generation_attempts (id, plan_id, goal_hash, tier, outcome, detail, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlanID, rec.GoalHash, rec.Tier, rec.Outcome, rec.Detail, rec.ElapsedMS, rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return rec, nil
}

// AttemptsForPlan returns the attempt trail recorded for a plan, oldest
// first.
func (s *Store) AttemptsForPlan(planID string) ([]models.AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, plan_id, goal_hash, tier, outcome, detail, elapsed_ms, created_at FROM generation_attempts WHERE plan_id = ? ORDER BY created_at, id`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var recs []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		var planID, detail sql.NullString
		if err := rows.Scan(&rec.ID, &planID, &rec.GoalHash, &rec.Tier, &rec.Outcome, &detail, &rec.ElapsedMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if planID.Valid {
			rec.PlanID = planID.String
		}
		if detail.Valid {
			rec.Detail = detail.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
