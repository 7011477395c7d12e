package api

import "errors"

// Sentinel errors for plan service operations.
var (
	ErrEmptyGoal    = errors.New("goal is required")
	ErrPlanNotFound = errors.New("plan not found")
)
