package reports

import (
	"context"

	"github.com/fdg312/coach-hub/internal/mealplans"
	"github.com/google/uuid"
)

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

// PlanSource returns the active plan of a client. mealplans.Service implements it.
type PlanSource interface {
	GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*mealplans.MealPlanDTO, error)
}

// labels holds the printed texts of one locale.
type labels struct {
	title    string
	targets  string
	weekly   string
	total    string
	calories string
	protein  string
	carbs    string
	fat      string
	empty    string
	slots    map[mealplans.Slot]string
}

var localeLabels = map[string]labels{
	"hr": {
		title:    "Tjedni plan prehrane",
		targets:  "Ciljevi",
		weekly:   "Tjedni prosjek",
		total:    "Ukupno",
		calories: "kcal",
		protein:  "Proteini",
		carbs:    "Ugljikohidrati",
		fat:      "Masti",
		empty:    "Nema obroka",
		slots: map[mealplans.Slot]string{
			mealplans.SlotBreakfast: "Doručak",
			mealplans.SlotSnack1:    "Užina",
			mealplans.SlotLunch:     "Ručak",
			mealplans.SlotSnack2:    "Užina 2",
			mealplans.SlotSnack3:    "Užina 3",
			mealplans.SlotDinner:    "Večera",
		},
	},
	"en": {
		title:    "Weekly meal plan",
		targets:  "Targets",
		weekly:   "Weekly average",
		total:    "Total",
		calories: "kcal",
		protein:  "Protein",
		carbs:    "Carbs",
		fat:      "Fat",
		empty:    "No meals",
		slots: map[mealplans.Slot]string{
			mealplans.SlotBreakfast: "Breakfast",
			mealplans.SlotSnack1:    "Snack",
			mealplans.SlotLunch:     "Lunch",
			mealplans.SlotSnack2:    "Snack 2",
			mealplans.SlotSnack3:    "Snack 3",
			mealplans.SlotDinner:    "Dinner",
		},
	},
}

func labelsFor(locale string) labels {
	if l, ok := localeLabels[locale]; ok {
		return l
	}
	return localeLabels["hr"]
}
