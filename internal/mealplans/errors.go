package mealplans

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPlanNotFound         = errors.New("plan_not_found")
	ErrEmptyPlan            = errors.New("empty_plan")
	ErrGenerationInProgress = errors.New("generation_in_progress")
	ErrUpstreamTimeout      = errors.New("upstream_timeout")
	ErrUpstreamFailed       = errors.New("upstream_failed")
	ErrInvalidRequest       = errors.New("invalid_request")
)

// PlanNotFoundError is returned when no candidate key of the upstream
// document holds a plan object.
type PlanNotFoundError struct {
	Tried []string
	Cause error
}

func (e *PlanNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan not found: %v", e.Cause)
	}
	return "plan not found (tried " + strings.Join(e.Tried, ", ") + ")"
}

func (e *PlanNotFoundError) Is(target error) bool { return target == ErrPlanNotFound }

func (e *PlanNotFoundError) Unwrap() error { return e.Cause }

// EmptyPlanError is returned when the resolved plan has no days.
type EmptyPlanError struct {
	Path string
}

func (e *EmptyPlanError) Error() string {
	return fmt.Sprintf("plan at %q has no days", e.Path)
}

func (e *EmptyPlanError) Is(target error) bool { return target == ErrEmptyPlan }
