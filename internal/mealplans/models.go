package mealplans

import (
	"encoding/json"
	"time"

	"github.com/fdg312/coach-hub/internal/generator"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/google/uuid"
)

// Slot is one of the six fixed meal positions of a day.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotSnack1    Slot = "snack1"
	SlotLunch     Slot = "lunch"
	SlotSnack2    Slot = "snack2"
	SlotSnack3    Slot = "snack3"
	SlotDinner    Slot = "dinner"
)

// Slots lists the slots in display order.
var Slots = []Slot{SlotBreakfast, SlotSnack1, SlotLunch, SlotSnack2, SlotSnack3, SlotDinner}

var snackSlots = []Slot{SlotSnack1, SlotSnack2, SlotSnack3}

func (s Slot) isSnack() bool {
	return s == SlotSnack1 || s == SlotSnack2 || s == SlotSnack3
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fat:      t.Fat + o.Fat,
	}
}

// rounded applies the display precision: integer calories, one-decimal macros.
func (t Totals) rounded() Totals {
	return Totals{
		Calories: roundInt(t.Calories),
		Protein:  round1(t.Protein),
		Carbs:    round1(t.Carbs),
		Fat:      round1(t.Fat),
	}
}

// MealComponent is one ingredient line. Nutrients are only present when
// upstream supplied them for the component.
type MealComponent struct {
	Name     string   `json:"name"`
	Grams    float64  `json:"grams"`
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

type CanonicalMeal struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	PreparationTip string          `json:"preparationTip,omitempty"`
	Components     []MealComponent `json:"components"`
	Totals         Totals          `json:"totals"`
}

// DayMeals holds the six slots. An empty slot encodes as null.
type DayMeals struct {
	Breakfast *CanonicalMeal `json:"breakfast"`
	Snack1    *CanonicalMeal `json:"snack1"`
	Lunch     *CanonicalMeal `json:"lunch"`
	Snack2    *CanonicalMeal `json:"snack2"`
	Snack3    *CanonicalMeal `json:"snack3"`
	Dinner    *CanonicalMeal `json:"dinner"`
}

func (m *DayMeals) ptr(slot Slot) **CanonicalMeal {
	switch slot {
	case SlotBreakfast:
		return &m.Breakfast
	case SlotSnack1:
		return &m.Snack1
	case SlotLunch:
		return &m.Lunch
	case SlotSnack2:
		return &m.Snack2
	case SlotSnack3:
		return &m.Snack3
	case SlotDinner:
		return &m.Dinner
	}
	return nil
}

// Get returns the meal in slot, nil when empty or unknown.
func (m DayMeals) Get(slot Slot) *CanonicalMeal {
	p := m.ptr(slot)
	if p == nil {
		return nil
	}
	return *p
}

func (m *DayMeals) set(slot Slot, meal *CanonicalMeal) {
	if p := m.ptr(slot); p != nil {
		*p = meal
	}
}

func (m DayMeals) isFree(slot Slot) bool {
	p := m.ptr(slot)
	return p != nil && *p == nil
}

// Count returns the number of populated slots.
func (m DayMeals) Count() int {
	n := 0
	for _, s := range Slots {
		if m.Get(s) != nil {
			n++
		}
	}
	return n
}

type CanonicalDay struct {
	Date        string   `json:"date"`
	DayName     string   `json:"dayName"`
	Meals       DayMeals `json:"meals"`
	DailyTotals Totals   `json:"dailyTotals"`
}

type WeeklyTotals struct {
	AvgCalories float64 `json:"avgCalories"`
	AvgProtein  float64 `json:"avgProtein"`
	AvgCarbs    float64 `json:"avgCarbs"`
	AvgFat      float64 `json:"avgFat"`
}

// WeeklyPlan is the canonical plan handed to clients. It is built once per
// generation and never mutated afterwards.
type WeeklyPlan struct {
	UserTargets  nutrition.Targets `json:"userTargets"`
	Days         []CanonicalDay    `json:"days"`
	WeeklyTotals WeeklyTotals      `json:"weeklyTotals"`
}

// Result is a normalized plan plus the advisory warnings raised while building it.
type Result struct {
	Plan     WeeklyPlan `json:"plan"`
	Warnings []Warning  `json:"warnings"`
}

// GenerateRequest is the body of POST /v1/meal/plan/generate. Calculations may be
// omitted when the client has stored targets.
type GenerateRequest struct {
	ClientID     uuid.UUID               `json:"client_id"`
	Calculations *nutrition.Calculations `json:"calculations,omitempty"`
	Preferences  generator.Preferences   `json:"preferences"`
}

// NormalizeRequest is the body of POST /v1/meal/plan/normalize.
type NormalizeRequest struct {
	Document     json.RawMessage         `json:"document"`
	Calculations *nutrition.Calculations `json:"calculations,omitempty"`
}

// MealPlanDTO is the stored active plan of a client.
type MealPlanDTO struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	Plan         WeeklyPlan `json:"plan"`
	Warnings     []Warning  `json:"warnings"`
	DayCount     int        `json:"day_count"`
	RawObjectKey *string    `json:"raw_object_key,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type GetMealPlanResponse struct {
	Plan        *MealPlanDTO `json:"plan"`
	SelectedDay int          `json:"selected_day"`
}

type StatusResponse struct {
	ClientID  uuid.UUID  `json:"client_id"`
	State     State      `json:"state"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
