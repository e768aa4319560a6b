package generator

import (
	"context"
	"encoding/json"
	"math"
	"time"
)

type mealTemplate struct {
	name        string
	description string
	tip         string
	// grams per component at 2000 kcal
	components []componentTemplate
}

type componentTemplate struct {
	name  string
	grams float64
}

type slotTemplate struct {
	key       string
	share     float64
	templates []mealTemplate
}

var mockSlots = []slotTemplate{
	{key: "dorucak", share: 0.25, templates: []mealTemplate{
		{"Zobena kaša s bananom", "Zobene pahuljice kuhane u mlijeku s bananom.", "Pahuljice namočite večer prije.",
			[]componentTemplate{{"Zobene pahuljice", 60}, {"Mlijeko", 200}, {"Banana", 100}}},
		{"Omlet s povrćem", "Jaja s paprikom i špinatom, uz kruh.", "",
			[]componentTemplate{{"Jaja", 120}, {"Paprika", 80}, {"Špinat", 50}, {"Integralni kruh", 60}}},
		{"Grčki jogurt s voćem", "Jogurt s bobičastim voćem i orasima.", "",
			[]componentTemplate{{"Grčki jogurt", 200}, {"Borovnice", 80}, {"Orasi", 20}}},
	}},
	{key: "uzina", share: 0.10, templates: []mealTemplate{
		{"Jabuka i bademi", "", "", []componentTemplate{{"Jabuka", 150}, {"Bademi", 20}}},
		{"Proteinski shake", "Shake od mlijeka i proteina.", "",
			[]componentTemplate{{"Whey protein", 30}, {"Mlijeko", 250}}},
	}},
	{key: "rucak", share: 0.35, templates: []mealTemplate{
		{"Piletina s rižom", "Pečena piletina uz basmati rižu i brokulu.", "Piletinu marinirajte u limunu.",
			[]componentTemplate{{"Pileća prsa", 150}, {"Basmati riža", 80}, {"Brokula", 120}}},
		{"Losos s krumpirom", "Losos na žaru s kuhanim krumpirom.", "",
			[]componentTemplate{{"Losos", 150}, {"Krumpir", 200}, {"Maslinovo ulje", 10}}},
		{"Junetina s tjesteninom", "Umak od junetine uz integralnu tjesteninu.", "",
			[]componentTemplate{{"Mljevena junetina", 130}, {"Integralna tjestenina", 90}, {"Pelati", 150}}},
	}},
	{key: "vecera", share: 0.30, templates: []mealTemplate{
		{"Salata s tunom", "Miješana salata s tunjevinom i jajetom.", "",
			[]componentTemplate{{"Tunjevina", 120}, {"Jaja", 60}, {"Zelena salata", 100}, {"Maslinovo ulje", 10}}},
		{"Puretina s povrćem", "Puretina s povrćem s grila.", "",
			[]componentTemplate{{"Pureća prsa", 150}, {"Tikvice", 150}, {"Paprika", 100}}},
	}},
}

// MockGenerator returns a seven-day plan in the legacy upstream shape:
// Croatian meal keys, a per-day "total" and a root-level "weeklyAverage".
type MockGenerator struct {
	now func() time.Time
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{now: time.Now}
}

// NewMockGeneratorAt pins the first plan day, for tests.
func NewMockGeneratorAt(now func() time.Time) *MockGenerator {
	return &MockGenerator{now: now}
}

func (g *MockGenerator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := req.Calculations
	calories := c.TargetCalories
	if calories <= 0 {
		calories = 2000
	}
	scale := calories / 2000

	start := g.now()
	days := make([]map[string]any, 0, 7)
	var week [4]float64

	for d := 0; d < 7; d++ {
		meals := make(map[string]any, len(mockSlots))
		var total [4]float64

		for _, slot := range mockSlots {
			tpl := slot.templates[d%len(slot.templates)]
			macros := [4]float64{
				math.Round(calories * slot.share),
				round1(c.TargetProtein * slot.share),
				round1(c.TargetCarbs * slot.share),
				round1(c.TargetFat * slot.share),
			}
			for i := range total {
				total[i] += macros[i]
			}

			details := make([]map[string]any, len(tpl.components))
			for i, comp := range tpl.components {
				details[i] = map[string]any{
					"foodName": comp.name,
					"grams":    math.Round(comp.grams * scale),
				}
			}

			meal := map[string]any{
				"name":             tpl.name,
				"description":      tpl.description,
				"componentDetails": details,
				"calories":         macros[0],
				"protein":          macros[1],
				"carbs":            macros[2],
				"fat":              macros[3],
			}
			if tpl.tip != "" {
				meal["preparationTip"] = tpl.tip
			}
			meals[slot.key] = meal
		}

		for i := range week {
			week[i] += total[i]
		}
		days = append(days, map[string]any{
			"date":  start.AddDate(0, 0, d).Format("2006-01-02"),
			"meals": meals,
			"total": map[string]any{
				"calories": total[0],
				"protein":  round1(total[1]),
				"carbs":    round1(total[2]),
				"fat":      round1(total[3]),
			},
		})
	}

	doc := map[string]any{
		"ok":      true,
		"message": "Tjedni plan generiran",
		"plan": map[string]any{
			"days": days,
			"userTargets": map[string]any{
				"calories": c.TargetCalories,
				"protein":  c.TargetProtein,
				"carbs":    c.TargetCarbs,
				"fat":      c.TargetFat,
				"goal":     c.GoalType,
			},
		},
		"weeklyAverage": map[string]any{
			"calories":  math.Round(week[0] / 7),
			"protein":   round1(week[1] / 7),
			"carbs":     round1(week[2] / 7),
			"fat":       round1(week[3] / 7),
			"deviation": 0,
		},
	}
	return json.Marshal(doc)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
