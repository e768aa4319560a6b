package nutrition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRequest wraps validation failures of request DTOs.
var ErrInvalidRequest = errors.New("invalid_request")

// Calculations is the flat target set sent to the meal plan generator
// when a plan is requested without stored targets.
type Calculations struct {
	TargetCalories float64  `json:"targetCalories"`
	TargetProtein  float64  `json:"targetProtein"`
	TargetCarbs    float64  `json:"targetCarbs"`
	TargetFat      float64  `json:"targetFat"`
	GoalType       Goal     `json:"goalType"`
	BMR            *float64 `json:"bmr,omitempty"`
	TDEE           *float64 `json:"tdee,omitempty"`
}

// Validate accepts zero macro targets; CalculateMacros clamps carbs to 0
// when protein and fat already cover the calories.
func (c Calculations) Validate() error {
	if err := requirePositive("calculations.targetCalories", c.TargetCalories); err != nil {
		return err
	}
	macros := []struct {
		name string
		v    float64
	}{
		{"calculations.targetProtein", c.TargetProtein},
		{"calculations.targetCarbs", c.TargetCarbs},
		{"calculations.targetFat", c.TargetFat},
	}
	for _, m := range macros {
		if err := requireNonNegative(m.name, m.v); err != nil {
			return err
		}
	}
	if _, err := ParseGoal(string(c.GoalType)); err != nil {
		return &InvalidInputError{Field: "calculations.goalType", Reason: fmt.Sprintf("unknown value %q", c.GoalType)}
	}
	return nil
}

// Targets converts the flat shape into the canonical targets value.
func (c Calculations) Targets() Targets {
	t := Targets{
		TargetCalories: math.Round(c.TargetCalories),
		Macros: Macros{
			Protein: round1(c.TargetProtein),
			Carbs:   round1(c.TargetCarbs),
			Fats:    round1(c.TargetFat),
		},
		Goal: c.GoalType,
	}
	if c.BMR != nil {
		t.BMR = math.Round(*c.BMR)
	}
	if c.TDEE != nil {
		t.TDEE = math.Round(*c.TDEE)
	}
	return t
}

// CalculationsFromTargets is the inverse of Calculations.Targets.
func CalculationsFromTargets(t Targets) Calculations {
	c := Calculations{
		TargetCalories: t.TargetCalories,
		TargetProtein:  t.Macros.Protein,
		TargetCarbs:    t.Macros.Carbs,
		TargetFat:      t.Macros.Fats,
		GoalType:       t.Goal,
	}
	if t.BMR > 0 {
		bmr := t.BMR
		c.BMR = &bmr
	}
	if t.TDEE > 0 {
		tdee := t.TDEE
		c.TDEE = &tdee
	}
	return c
}

// TargetsDTO represents the stored nutrition targets of a client.
type TargetsDTO struct {
	ClientID     uuid.UUID `json:"client_id"`
	Goal         Goal      `json:"goal"`
	BMRKcal      int       `json:"bmr_kcal"`
	TDEEKcal     int       `json:"tdee_kcal"`
	CaloriesKcal int       `json:"calories_kcal"`
	ProteinG     float64   `json:"protein_g"`
	FatG         float64   `json:"fat_g"`
	CarbsG       float64   `json:"carbs_g"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Targets converts stored targets into the canonical value.
func (d TargetsDTO) Targets() Targets {
	return Targets{
		BMR:            float64(d.BMRKcal),
		TDEE:           float64(d.TDEEKcal),
		TargetCalories: float64(d.CaloriesKcal),
		Macros:         Macros{Protein: d.ProteinG, Carbs: d.CarbsG, Fats: d.FatG},
		Goal:           d.Goal,
	}
}

// GetTargetsResponse contains targets and a flag indicating if they are defaults.
type GetTargetsResponse struct {
	Targets   TargetsDTO `json:"targets"`
	IsDefault bool       `json:"is_default"`
}

// UpsertTargetsRequest is the request body for PUT /v1/nutrition/targets.
type UpsertTargetsRequest struct {
	ClientID     uuid.UUID `json:"client_id"`
	Goal         Goal      `json:"goal"`
	CaloriesKcal int       `json:"calories_kcal"`
	ProteinG     float64   `json:"protein_g"`
	FatG         float64   `json:"fat_g"`
	CarbsG       float64   `json:"carbs_g"`
}

func (r *UpsertTargetsRequest) Validate() error {
	if r.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}

	if r.Goal == "" {
		r.Goal = GoalMaintain
	}
	if _, err := ParseGoal(string(r.Goal)); err != nil {
		return fmt.Errorf("goal must be one of lose, maintain, gain")
	}

	if r.CaloriesKcal < 800 || r.CaloriesKcal > 6000 {
		return fmt.Errorf("calories_kcal must be between 800 and 6000")
	}

	macros := []struct {
		name string
		v    float64
	}{
		{"protein_g", r.ProteinG},
		{"fat_g", r.FatG},
		{"carbs_g", r.CarbsG},
	}
	for _, m := range macros {
		if math.IsNaN(m.v) || m.v < 0 || m.v > 1000 {
			return fmt.Errorf("%s must be between 0 and 1000", m.name)
		}
	}

	return nil
}

// CalculateRequest is the body of POST /v1/nutrition/calculate.
// ActivityCount and Goals are the raw onboarding answers, used when the
// explicit activity_level or goal is absent.
type CalculateRequest struct {
	ClientID      *uuid.UUID    `json:"client_id,omitempty"`
	WeightKg      float64       `json:"weight_kg"`
	HeightCm      float64       `json:"height_cm"`
	AgeYears      float64       `json:"age_years"`
	Sex           Sex           `json:"sex"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	ActivityCount *int          `json:"activity_count,omitempty"`
	Goal          Goal          `json:"goal"`
	Goals         []string      `json:"goals,omitempty"`
	Persist       bool          `json:"persist"`
}

// Resolve returns the calculator inputs, deriving level and goal from onboarding answers.
func (r CalculateRequest) Resolve() (BodyMetrics, ActivityLevel, Goal) {
	level := r.ActivityLevel
	if level == "" && r.ActivityCount != nil {
		level = DetermineActivityLevel(*r.ActivityCount)
	}

	goal := r.Goal
	if goal == "" {
		goal = DetermineGoal(r.Goals)
	}

	return BodyMetrics{
		WeightKg: r.WeightKg,
		HeightCm: r.HeightCm,
		AgeYears: r.AgeYears,
		Sex:      r.Sex,
	}, level, goal
}

type CalculateResponse struct {
	Targets      Targets      `json:"targets"`
	Calculations Calculations `json:"calculations"`
	Stored       *TargetsDTO  `json:"stored,omitempty"`
}

// GetDefaultTargets returns reasonable default nutrition targets.
func GetDefaultTargets(clientID uuid.UUID) TargetsDTO {
	now := time.Now().UTC()
	return TargetsDTO{
		ClientID:     clientID,
		Goal:         GoalMaintain,
		CaloriesKcal: 2200,
		ProteinG:     120,
		FatG:         70,
		CarbsG:       250,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
