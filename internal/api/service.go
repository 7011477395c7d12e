// Package api provides the HTTP API and service layer for Planora.
package api

import (
	"context"
	"log"
	"strings"

	"github.com/fentz26/planora/internal/models"
	"github.com/fentz26/planora/internal/selector"
	"github.com/fentz26/planora/internal/store"
)

// Service provides the plan service business logic.
type Service struct {
	store    *store.Store
	selector *selector.Selector
}

// NewService creates a new plan service.
func NewService(st *store.Store, sel *selector.Selector) *Service {
	return &Service{
		store:    st,
		selector: sel,
	}
}

// CreateResult pairs a generated plan with the outcome of persisting it.
type CreateResult struct {
	Plan    *models.Plan
	Saved   bool
	SaveErr error
}

// CreatePlan generates a plan for the goal and persists it. A blank goal
// is the only input error; after that point generation cannot fail, and a
// persistence failure is reported in the result instead of failing the
// request.
func (s *Service) CreatePlan(ctx context.Context, goalText string) (*CreateResult, error) {
	goalText = strings.TrimSpace(goalText)
	if goalText == "" {
		return nil, ErrEmptyGoal
	}

	plan := s.selector.Generate(ctx, goalText)

	res := &CreateResult{Plan: plan, Saved: true}
	if err := s.store.SavePlan(plan); err != nil {
		log.Printf("api: save plan %s: %v", plan.ID, err)
		res.Saved = false
		res.SaveErr = err
	}
	return res, nil
}

// GetPlan retrieves a stored plan by ID. Returns nil without error when no
// plan has that ID.
func (s *Service) GetPlan(id string) (*models.Plan, error) {
	return s.store.GetPlan(id)
}

// ListPlans returns recent plan summaries, newest first.
func (s *Service) ListPlans(limit int) ([]models.PlanSummary, error) {
	return s.store.ListPlans(limit)
}

// DeletePlan removes a stored plan and reports whether it existed.
func (s *Service) DeletePlan(id string) (bool, error) {
	return s.store.DeletePlan(id)
}

// PlanAttempts returns the persisted attempt trail for a plan.
func (s *Service) PlanAttempts(id string) ([]models.AttemptRecord, error) {
	return s.store.AttemptsForPlan(id)
}
