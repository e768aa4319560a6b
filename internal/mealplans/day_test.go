package mealplans

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOptions() Options {
	return Options{
		Locale: "hr",
		Now:    func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) },
		Logger: discard,
	}
}

func TestNormalizeDayKeyedMealsWithNullSlot(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": {
			"breakfast": {"name": "Oats", "calories": 350, "protein": 12, "carbs": 55, "fat": 8},
			"lunch": null,
			"dinner": {"name": "Chicken", "calories": 500, "protein": 45, "carbs": 20, "fat": 18}
		}
	}`), 0, fixedOptions(), warn)

	assert.Equal(t, "2024-03-04", day.Date)
	assert.Equal(t, "Ponedjeljak", day.DayName)
	require.NotNil(t, day.Meals.Breakfast)
	require.NotNil(t, day.Meals.Dinner)
	assert.Nil(t, day.Meals.Lunch)
	assert.Equal(t, Totals{Calories: 850, Protein: 57, Carbs: 75, Fat: 26}, day.DailyTotals)
	assert.Empty(t, warn.List())
}

func TestNormalizeDayZeroUpstreamTotalsRecomputed(t *testing.T) {
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"dailyTotals": {"calories": 0, "protein": 0, "carbs": 0, "fat": 0},
		"meals": {
			"breakfast": {"name": "Eggs", "calories": 400, "protein": 25.6},
			"dinner": {"name": "Fish", "calories": 500, "protein": 40}
		}
	}`), 0, fixedOptions(), quietWarnings())

	assert.Equal(t, 900.0, day.DailyTotals.Calories)
	assert.Equal(t, 65.6, day.DailyTotals.Protein)
}

func TestNormalizeDayUpstreamTotalsPreferred(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"dailyTotals", "dailyTotals"},
		{"legacy total", "total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := NormalizeDay(decode(t, fmt.Sprintf(`{
				"date": "2024-03-04",
				%q: {"calories": 2000.4, "protein": 150, "carbs": 200, "fats": 70},
				"meals": {"breakfast": {"name": "Eggs", "calories": 400}}
			}`, tt.key)), 0, fixedOptions(), quietWarnings())
			assert.Equal(t, Totals{Calories: 2000, Protein: 150, Carbs: 200, Fat: 70}, day.DailyTotals)
		})
	}
}

func TestNormalizeDayDates(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		want    string
		warning bool
	}{
		{"plain", `"2024-03-05"`, "2024-03-05", false},
		{"rfc3339", `"2024-03-05T18:30:00+01:00"`, "2024-03-05", false},
		{"local timestamp", `"2024-03-05 07:15:00"`, "2024-03-05", false},
		{"unix seconds", `1709510400`, "2024-03-04", false},
		{"unix millis", `1709510400000`, "2024-03-04", false},
		{"invalid string falls back to today", `"next monday"`, "2024-03-04", true},
		{"impossible date", `"2024-02-31"`, "2024-03-04", true},
		{"missing", `null`, "2024-03-04", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warn := quietWarnings()
			day := NormalizeDay(decode(t, `{"date": `+tt.date+`, "meals": {"lunch": {"name": "Soup"}}}`), 2, fixedOptions(), warn)
			assert.Equal(t, tt.want, day.Date)
			assert.Equal(t, tt.warning, warn.Has(WarnDateInvalid))
			if tt.warning {
				assert.Equal(t, "days[2].date", warn.List()[0].Path)
			}
		})
	}
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Utorak", DayName("2024-03-05", "hr"))
	assert.Equal(t, "Tuesday", DayName("2024-03-05", "en"))
	assert.Equal(t, "Utorak", DayName("2024-03-05", "xx"))
	assert.Equal(t, "", DayName("bogus", "en"))
}

func TestNormalizeDayArrayPlacement(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": [
			{"name": "Oats"},
			{"name": "Chicken soup"},
			{"name": "Steak"},
			{"name": "Apple"},
			null,
			{"name": "Yogurt"}
		]
	}`), 0, fixedOptions(), warn)

	assert.Equal(t, "Oats", day.Meals.Breakfast.Name)
	assert.Equal(t, "Chicken soup", day.Meals.Lunch.Name)
	assert.Equal(t, "Steak", day.Meals.Dinner.Name)
	assert.Equal(t, "Apple", day.Meals.Snack1.Name)
	assert.Equal(t, "Yogurt", day.Meals.Snack2.Name)
	assert.Nil(t, day.Meals.Snack3)
	assert.Empty(t, warn.List())
}

func TestNormalizeDayArrayHints(t *testing.T) {
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": [
			{"name": "Užina: jabuka"},
			{"name": "Doručak s jajima"},
			{"name": "Pasta", "mealType": "dinner"},
			{"name": "Nuts", "type": "snack"}
		]
	}`), 0, fixedOptions(), quietWarnings())

	assert.Equal(t, "Užina: jabuka", day.Meals.Snack1.Name)
	assert.Equal(t, "Doručak s jajima", day.Meals.Breakfast.Name)
	assert.Equal(t, "Pasta", day.Meals.Dinner.Name)
	assert.Equal(t, "Nuts", day.Meals.Snack2.Name)
	assert.Nil(t, day.Meals.Lunch)
}

func TestNormalizeDayArrayOverflow(t *testing.T) {
	raw := make([]any, 7)
	for i := range raw {
		raw[i] = map[string]any{"name": fmt.Sprintf("Meal %d", i), "calories": 100.0}
	}
	warn := quietWarnings()
	day := NormalizeDay(map[string]any{"date": "2024-03-04", "meals": raw}, 0, fixedOptions(), warn)

	assert.Equal(t, 6, day.Meals.Count())
	assert.Equal(t, []WarningCode{WarnMealOverflow}, codes(warn.List()))
	assert.Equal(t, "days[0].meals[6]", warn.List()[0].Path)
}

func TestNormalizeDaySnackCollisions(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": {
			"Breakfast": {"name": "B"},
			"snack": {"name": "S"},
			"snack1": {"name": "S1"},
			"extra_snack": {"name": "E"},
			"Lunch": {"name": "L"},
			"dinner": {"name": "D"}
		}
	}`), 0, fixedOptions(), warn)

	assert.Equal(t, "B", day.Meals.Breakfast.Name)
	assert.Equal(t, "S", day.Meals.Snack1.Name)
	assert.Equal(t, "S1", day.Meals.Snack2.Name)
	assert.Equal(t, "E", day.Meals.Snack3.Name)
	assert.Equal(t, "L", day.Meals.Lunch.Name)
	assert.Equal(t, "D", day.Meals.Dinner.Name)
	assert.Empty(t, warn.List())
}

func TestNormalizeDayDuplicateMainSlotReassigned(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": {"lunch": {"name": "A"}, "rucak": {"name": "B"}}
	}`), 0, fixedOptions(), warn)

	assert.Equal(t, 2, day.Meals.Count())
	assert.Equal(t, "A", day.Meals.Lunch.Name)
	assert.Equal(t, "B", day.Meals.Breakfast.Name)
	assert.Equal(t, []WarningCode{WarnMealSlotReassigned}, codes(warn.List()))
}

func TestNormalizeDayCroatianKeys(t *testing.T) {
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": {
			"dorucak": {"name": "Zobena kaša"},
			"uzina": {"name": "Jabuka"},
			"ručak": {"name": "Piletina"},
			"dodatna_uzina": {"name": "Orasi"},
			"vecera": {"name": "Salata"}
		}
	}`), 0, fixedOptions(), quietWarnings())

	assert.Equal(t, "Zobena kaša", day.Meals.Breakfast.Name)
	assert.Equal(t, "Jabuka", day.Meals.Snack1.Name)
	assert.Equal(t, "Piletina", day.Meals.Lunch.Name)
	assert.Equal(t, "Orasi", day.Meals.Snack2.Name)
	assert.Equal(t, "Salata", day.Meals.Dinner.Name)
}

func TestNormalizeDayUnknownKey(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": {"brunch": {"name": "Pancakes"}, "breakfast": {"name": "Eggs"}, "notes": null}
	}`), 1, fixedOptions(), warn)

	assert.Equal(t, 1, day.Meals.Count())
	require.Len(t, warn.List(), 1)
	assert.Equal(t, WarnMealKeyUnknown, warn.List()[0].Code)
	assert.Equal(t, "days[1].meals.brunch", warn.List()[0].Path)
}

func TestNormalizeDayLegacySlotsOnDay(t *testing.T) {
	warn := quietWarnings()
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"dayName": "Ponedjeljak",
		"dorucak": {"name": "Kruh", "calories": 300},
		"vecera": {"name": "Riba", "calories": 450}
	}`), 0, fixedOptions(), warn)

	assert.Equal(t, 2, day.Meals.Count())
	assert.Equal(t, 750.0, day.DailyTotals.Calories)
	assert.Empty(t, warn.List())
}

func TestNormalizeDayEmpty(t *testing.T) {
	for _, raw := range []string{`{"date": "2024-03-04", "meals": {}}`, `null`, `"junk"`} {
		t.Run(raw, func(t *testing.T) {
			warn := quietWarnings()
			day := NormalizeDay(decode(t, raw), 0, fixedOptions(), warn)
			assert.Equal(t, 0, day.Meals.Count())
			assert.Equal(t, Totals{}, day.DailyTotals)
			assert.True(t, warn.Has(WarnDayEmpty))
			assert.NotEmpty(t, day.Date)
		})
	}
}

// Every meal that is an object or string lands in a slot while fewer than
// seven are sent, whatever the keys look like.
func TestNormalizeDayNeverDropsMeals(t *testing.T) {
	keys := []string{"breakfast", "snack", "lunch", "mystery", "dinner", "snack", "lunch"}
	for n := 0; n <= 6; n++ {
		t.Run(fmt.Sprintf("array of %d", n), func(t *testing.T) {
			raw := make([]any, n)
			for i := range raw {
				raw[i] = map[string]any{"name": fmt.Sprintf("M%d", i), "type": keys[i]}
			}
			day := NormalizeDay(map[string]any{"date": "2024-03-04", "meals": raw}, 0, fixedOptions(), quietWarnings())
			assert.Equal(t, n, day.Meals.Count())
		})
	}

	t.Run("array of names only", func(t *testing.T) {
		var names []string
		for i := 0; i < 6; i++ {
			names = append(names, fmt.Sprintf(`"Dinner %d"`, i))
		}
		day := NormalizeDay(decode(t, `{"date": "2024-03-04", "meals": [`+strings.Join(names, ",")+`]}`), 0, fixedOptions(), quietWarnings())
		assert.Equal(t, 6, day.Meals.Count())
	})
}

func TestNormalizeDayTotalsMatchSlots(t *testing.T) {
	day := NormalizeDay(decode(t, `{
		"date": "2024-03-04",
		"meals": [
			{"name": "A", "calories": 333.3, "protein": 20.15, "carbs": 40.04, "fat": 10.26},
			{"name": "B", "calories": 512.6, "protein": 33.33, "carbs": 61.11, "fat": 19.99},
			{"name": "C", "calories": 610.2, "protein": 41.47, "carbs": 70.55, "fat": 22.22},
			{"name": "D", "calories": 150.9, "protein": 5.05, "carbs": 20.02, "fat": 6.66}
		]
	}`), 0, fixedOptions(), quietWarnings())

	var sum Totals
	for _, s := range Slots {
		if m := day.Meals.Get(s); m != nil {
			sum = sum.add(m.Totals)
		}
	}
	assert.InDelta(t, sum.Calories, day.DailyTotals.Calories, 0.5)
	assert.InDelta(t, sum.Protein, day.DailyTotals.Protein, 0.1)
	assert.InDelta(t, sum.Carbs, day.DailyTotals.Carbs, 0.1)
	assert.InDelta(t, sum.Fat, day.DailyTotals.Fat, 0.1)
}
