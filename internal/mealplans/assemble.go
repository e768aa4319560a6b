package mealplans

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/fdg312/coach-hub/internal/nutrition"
)

// planCandidates lists where upstream responses have been seen to put the
// plan. An empty path is the document root.
var planCandidates = [][]string{
	{"plan"},
	{"mealPlan"},
	{"result", "plan"},
	{"data", "plan"},
	{"data", "mealPlan"},
	{"data", "result", "plan"},
	{"data", "data", "plan"},
	{"data"},
	{},
}

var weekdayOrder = map[string]int{
	"monday":      0,
	"ponedjeljak": 0,
	"tuesday":     1,
	"utorak":      1,
	"wednesday":   2,
	"srijeda":     2,
	"thursday":    3,
	"četvrtak":    3,
	"cetvrtak":    3,
	"friday":      4,
	"petak":       4,
	"saturday":    5,
	"subota":      5,
	"sunday":      6,
	"nedjelja":    6,
}

// AssembleJSON decodes data and assembles it. Undecodable input is reported
// as a missing plan.
func AssembleJSON(data []byte, direct *nutrition.Calculations, opts Options) (Result, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, &PlanNotFoundError{Cause: fmt.Errorf("decode document: %w", err)}
	}
	return Assemble(raw, direct, opts)
}

// Assemble builds the canonical weekly plan from a decoded upstream document.
// direct seeds the user targets when the document carries none. The only
// hard failures are a missing plan object and a plan without days.
func Assemble(raw any, direct *nutrition.Calculations, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	warn := NewWarnings(logger)

	root, ok := asObject(raw)
	if !ok {
		dumpUnresolved(opts, logger, raw)
		return Result{}, &PlanNotFoundError{Tried: candidateNames()}
	}

	plan, lookup, where := resolvePlan(root)

	rawDays := collectDays(plan)
	days := make([]CanonicalDay, 0, len(rawDays))
	for i, d := range rawDays {
		days = append(days, NormalizeDay(d, i, opts, warn))
	}
	if len(days) == 0 {
		dumpUnresolved(opts, logger, raw)
		return Result{}, &EmptyPlanError{Path: where}
	}

	return Result{
		Plan: WeeklyPlan{
			UserTargets:  userTargets(lookup, direct, warn),
			Days:         days,
			WeeklyTotals: weeklyTotals(lookup, days),
		},
		Warnings: warn.List(),
	}, nil
}

// ClampDayIndex keeps a selected day index inside [0, dayCount-1].
func ClampDayIndex(index, dayCount int) int {
	if dayCount <= 0 || index < 0 {
		return 0
	}
	if index >= dayCount {
		return dayCount - 1
	}
	return index
}

// resolvePlan returns the first candidate that is an object, the objects to
// search for plan-level fields (plan, its parent, root) and the plan location.
// The root candidate always matches.
func resolvePlan(root map[string]any) (map[string]any, []map[string]any, string) {
	for _, keys := range planCandidates {
		if len(keys) == 0 {
			return root, []map[string]any{root}, "root"
		}
		v, ok := path(root, keys...)
		if !ok {
			continue
		}
		plan, ok := asObject(v)
		if !ok {
			continue
		}
		lookup := []map[string]any{plan}
		if len(keys) > 1 {
			if parent, ok := path(root, keys[:len(keys)-1]...); ok {
				if p, ok := asObject(parent); ok {
					lookup = append(lookup, p)
				}
			}
		}
		lookup = append(lookup, root)
		return plan, lookup, strings.Join(keys, ".")
	}
	return root, []map[string]any{root}, "root"
}

func candidateNames() []string {
	names := make([]string, len(planCandidates))
	for i, keys := range planCandidates {
		if len(keys) == 0 {
			names[i] = "root"
			continue
		}
		names[i] = strings.Join(keys, ".")
	}
	return names
}

// collectDays reads days as an array or as an object keyed by weekday,
// number or anything else, in that order.
func collectDays(plan map[string]any) []any {
	v, ok := field(plan, "days", "weeklyPlan", "week")
	if !ok {
		return nil
	}
	if arr, ok := asArray(v); ok {
		return arr
	}
	obj, ok := asObject(v)
	if !ok {
		return nil
	}

	keys := sortedKeys(obj)
	sort.SliceStable(keys, func(i, j int) bool {
		return dayKeyLess(keys[i], keys[j])
	})
	days := make([]any, 0, len(keys))
	for _, k := range keys {
		days = append(days, obj[k])
	}
	return days
}

func dayKeyLess(a, b string) bool {
	ra, rb := dayKeyRank(a), dayKeyRank(b)
	if ra.group != rb.group {
		return ra.group < rb.group
	}
	if ra.group < 2 {
		return ra.n < rb.n
	}
	return a < b
}

type dayRank struct {
	group int
	n     float64
}

func dayKeyRank(k string) dayRank {
	if idx, ok := weekdayOrder[normalizeKey(k)]; ok {
		return dayRank{group: 0, n: float64(idx)}
	}
	if n, err := strconv.ParseFloat(k, 64); err == nil {
		return dayRank{group: 1, n: n}
	}
	return dayRank{group: 2}
}

func weeklyTotals(lookup []map[string]any, days []CanonicalDay) WeeklyTotals {
	for _, obj := range lookup {
		wt, ok := objectField(obj, "weeklyTotals", "weeklyAverage", "weeklyAverages")
		if !ok {
			continue
		}
		return WeeklyTotals{
			AvgCalories: roundInt(nonNegative(wt, "avgCalories", "calories")),
			AvgProtein:  round1(nonNegative(wt, "avgProtein", "protein")),
			AvgCarbs:    round1(nonNegative(wt, "avgCarbs", "carbs")),
			AvgFat:      round1(nonNegative(wt, "avgFat", "fat", "fats")),
		}
	}

	var sum Totals
	for _, d := range days {
		sum = sum.add(d.DailyTotals)
	}
	n := float64(len(days))
	return WeeklyTotals{
		AvgCalories: roundInt(sum.Calories / n),
		AvgProtein:  round1(sum.Protein / n),
		AvgCarbs:    round1(sum.Carbs / n),
		AvgFat:      round1(sum.Fat / n),
	}
}

func userTargets(lookup []map[string]any, direct *nutrition.Calculations, warn *Warnings) nutrition.Targets {
	for _, obj := range lookup {
		if ut, ok := objectField(obj, "userTargets"); ok {
			return parseTargets(ut)
		}
	}
	if direct != nil {
		return direct.Targets()
	}
	warn.Add(WarnTargetsMissing, "userTargets", "no targets in document and none supplied")
	return nutrition.Targets{}
}

// parseTargets accepts the canonical nested shape and the flat
// {calories, protein, carbs, fat, goal} shape.
func parseTargets(ut map[string]any) nutrition.Targets {
	t := nutrition.Targets{
		BMR:            roundInt(nonNegative(ut, "bmr")),
		TDEE:           roundInt(nonNegative(ut, "tdee")),
		TargetCalories: roundInt(nonNegative(ut, "targetCalories", "calories")),
	}

	src := ut
	if macros, ok := objectField(ut, "macros"); ok {
		src = macros
	}
	t.Macros = nutrition.Macros{
		Protein: round1(nonNegative(src, "protein", "targetProtein")),
		Carbs:   round1(nonNegative(src, "carbs", "targetCarbs")),
		Fats:    round1(nonNegative(src, "fats", "fat", "targetFat")),
	}

	if goal, err := nutrition.ParseGoal(textField(ut, "goal", "goalType")); err == nil {
		t.Goal = goal
	}
	return t
}

func dumpUnresolved(opts Options, logger Logger, raw any) {
	if !opts.Debug {
		return
	}
	logger.Printf("DEBUG mealplans: unresolvable document:\n%s", spew.Sdump(raw))
}
