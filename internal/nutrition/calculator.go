package nutrition

import (
	"fmt"
	"math"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

// activityMultipliers is the only list of accepted activity levels.
var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

const (
	// MinimumCalories is the floor applied to a weight-loss target.
	MinimumCalories = 1200.0
	goalOffsetKcal  = 500.0

	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

var proteinPerKg = map[Goal]float64{
	GoalLose:     2.2,
	GoalGain:     2.0,
	GoalMaintain: 1.9,
}

var fatShare = map[Goal]float64{
	GoalLose:     0.25,
	GoalGain:     0.25,
	GoalMaintain: 0.30,
}

// InvalidInputError reports a metric or enum the calculator cannot work with.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BodyMetrics are the inputs collected during onboarding.
type BodyMetrics struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	AgeYears float64 `json:"age_years"`
	Sex      Sex     `json:"sex"`
}

type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// Targets is the result of one calculator run. Treat it as a value.
type Targets struct {
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	TargetCalories float64 `json:"targetCalories"`
	Macros         Macros  `json:"macros"`
	Goal           Goal    `json:"goal,omitempty"`
}

// CalculateBMR uses the Mifflin-St Jeor formula.
func CalculateBMR(weightKg, heightCm, ageYears float64, sex Sex) (float64, error) {
	if err := requirePositive("weight_kg", weightKg); err != nil {
		return 0, err
	}
	if err := requirePositive("height_cm", heightCm); err != nil {
		return 0, err
	}
	if err := requirePositive("age_years", ageYears); err != nil {
		return 0, err
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*ageYears
	switch sex {
	case SexMale:
		return bmr + 5, nil
	case SexFemale:
		return bmr - 161, nil
	default:
		return 0, &InvalidInputError{Field: "sex", Reason: fmt.Sprintf("unknown value %q", sex)}
	}
}

func CalculateTDEE(bmr float64, level ActivityLevel) (float64, error) {
	if err := requirePositive("bmr", bmr); err != nil {
		return 0, err
	}
	mult, ok := activityMultipliers[level]
	if !ok {
		return 0, &InvalidInputError{Field: "activity_level", Reason: fmt.Sprintf("unknown value %q", level)}
	}
	return bmr * mult, nil
}

func CalculateTargetCalories(tdee float64, goal Goal) (float64, error) {
	if err := requirePositive("tdee", tdee); err != nil {
		return 0, err
	}
	switch goal {
	case GoalLose:
		return math.Max(tdee-goalOffsetKcal, MinimumCalories), nil
	case GoalMaintain:
		return tdee, nil
	case GoalGain:
		return tdee + goalOffsetKcal, nil
	default:
		return 0, &InvalidInputError{Field: "goal", Reason: fmt.Sprintf("unknown value %q", goal)}
	}
}

// CalculateMacros anchors protein on body weight, gives fat a fixed share of
// the calories and leaves the remainder to carbs. No gram value is negative.
func CalculateMacros(targetCalories float64, goal Goal, weightKg float64) (Macros, error) {
	if err := requirePositive("target_calories", targetCalories); err != nil {
		return Macros{}, err
	}
	if err := requirePositive("weight_kg", weightKg); err != nil {
		return Macros{}, err
	}
	perKg, ok := proteinPerKg[goal]
	if !ok {
		return Macros{}, &InvalidInputError{Field: "goal", Reason: fmt.Sprintf("unknown value %q", goal)}
	}

	proteinKcal := weightKg * perKg * kcalPerGramProtein
	if proteinKcal > targetCalories {
		proteinKcal = targetCalories
	}
	fatKcal := targetCalories * fatShare[goal]
	carbsKcal := targetCalories - proteinKcal - fatKcal
	if carbsKcal < 0 {
		carbsKcal = 0
		fatKcal = targetCalories - proteinKcal
	}

	return Macros{
		Protein: round1(proteinKcal / kcalPerGramProtein),
		Carbs:   round1(carbsKcal / kcalPerGramCarbs),
		Fats:    round1(fatKcal / kcalPerGramFat),
	}, nil
}

// Calculate runs the whole pipeline for one client.
func Calculate(metrics BodyMetrics, level ActivityLevel, goal Goal) (Targets, error) {
	bmr, err := CalculateBMR(metrics.WeightKg, metrics.HeightCm, metrics.AgeYears, metrics.Sex)
	if err != nil {
		return Targets{}, err
	}
	tdee, err := CalculateTDEE(bmr, level)
	if err != nil {
		return Targets{}, err
	}
	target, err := CalculateTargetCalories(tdee, goal)
	if err != nil {
		return Targets{}, err
	}
	target = math.Round(target)

	macros, err := CalculateMacros(target, goal, metrics.WeightKg)
	if err != nil {
		return Targets{}, err
	}

	return Targets{
		BMR:            math.Round(bmr),
		TDEE:           math.Round(tdee),
		TargetCalories: target,
		Macros:         macros,
		Goal:           goal,
	}, nil
}

// DetermineActivityLevel maps the number of weekly activities to a level.
func DetermineActivityLevel(activityCount int) ActivityLevel {
	switch {
	case activityCount <= 0:
		return ActivitySedentary
	case activityCount <= 2:
		return ActivityLight
	case activityCount <= 4:
		return ActivityModerate
	case activityCount <= 6:
		return ActivityActive
	default:
		return ActivityVeryActive
	}
}

// DetermineGoal reads the onboarding goal tags.
func DetermineGoal(goals []string) Goal {
	for _, g := range goals {
		if g == "lose-fat" {
			return GoalLose
		}
	}
	for _, g := range goals {
		if g == "gain-muscle" {
			return GoalGain
		}
	}
	return GoalMaintain
}

func ParseGoal(s string) (Goal, error) {
	g := Goal(s)
	if _, ok := proteinPerKg[g]; !ok {
		return "", &InvalidInputError{Field: "goal", Reason: fmt.Sprintf("unknown value %q", s)}
	}
	return g, nil
}

func requirePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &InvalidInputError{Field: field, Reason: "must be positive"}
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidInputError{Field: field, Reason: "must be a finite number"}
	}
	if v < 0 {
		return &InvalidInputError{Field: field, Reason: "must not be negative"}
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
