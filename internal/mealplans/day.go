package mealplans

import (
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Options tune normalization. The zero value uses the hr locale, the wall
// clock and the standard logger.
type Options struct {
	Locale string
	Now    func() time.Time
	Logger Logger
	// Debug dumps documents that cannot be resolved.
	Debug bool
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

var dayNames = map[string][7]string{
	"hr": {"Nedjelja", "Ponedjeljak", "Utorak", "Srijeda", "Četvrtak", "Petak", "Subota"},
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
}

// DayName returns the weekday label of a YYYY-MM-DD date, "" when unparseable.
func DayName(date, locale string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	names, ok := dayNames[locale]
	if !ok {
		names = dayNames["hr"]
	}
	return names[t.Weekday()]
}

// slotAliases is keyed by normalizeKey output.
var slotAliases = map[string]Slot{
	"breakfast": SlotBreakfast,
	"dorucak":   SlotBreakfast,
	"doručak":   SlotBreakfast,

	"snack":        SlotSnack1,
	"snack1":       SlotSnack1,
	"morningsnack": SlotSnack1,
	"uzina":        SlotSnack1,
	"užina":        SlotSnack1,
	"uzina1":       SlotSnack1,
	"užina1":       SlotSnack1,

	"lunch": SlotLunch,
	"rucak": SlotLunch,
	"ručak": SlotLunch,

	"snack2":         SlotSnack2,
	"extrasnack":     SlotSnack2,
	"afternoonsnack": SlotSnack2,
	"uzina2":         SlotSnack2,
	"užina2":         SlotSnack2,
	"dodatnauzina":   SlotSnack2,
	"dodatnaužina":   SlotSnack2,

	"snack3":       SlotSnack3,
	"extrasnack2":  SlotSnack3,
	"eveningsnack": SlotSnack3,
	"uzina3":       SlotSnack3,
	"užina3":       SlotSnack3,

	"dinner": SlotDinner,
	"vecera": SlotDinner,
	"večera": SlotDinner,
}

// nameKeywords is ordered: "doručak" contains "ručak", so breakfast goes first.
var nameKeywords = []struct {
	slot  Slot
	words []string
}{
	{SlotBreakfast, []string{"breakfast", "doručak", "dorucak"}},
	{SlotLunch, []string{"lunch", "ručak", "rucak"}},
	{SlotDinner, []string{"dinner", "večera", "vecera"}},
	{SlotSnack1, []string{"snack", "užina", "uzina"}},
}

var positionalSlots = []Slot{SlotBreakfast, SlotLunch, SlotDinner}

// NormalizeDay converts one upstream day. The day is always returned, with
// empty slots when nothing could be resolved.
func NormalizeDay(raw any, index int, opts Options, warn *Warnings) CanonicalDay {
	base := indexPath("days", index)
	obj, _ := asObject(raw)

	dateValue, _ := field(obj, "date")
	date := normalizeDate(dateValue, base+".date", opts, warn)

	var meals DayMeals
	if v, ok := field(obj, "meals", "obroci"); ok {
		switch m := v.(type) {
		case []any:
			meals = placeArrayMeals(m, base+".meals", warn)
		case map[string]any:
			meals = placeKeyedMeals(m, base+".meals", false, warn)
		default:
			warn.Add(WarnMealInvalid, base+".meals", "meals is %T, expected array or object", v)
		}
	} else if obj != nil {
		// Legacy days carry the slots directly.
		meals = placeKeyedMeals(obj, base, true, warn)
	}

	if meals.Count() == 0 {
		warn.Add(WarnDayEmpty, base, "day has no resolvable meals")
	}

	return CanonicalDay{
		Date:        date,
		DayName:     DayName(date, opts.Locale),
		Meals:       meals,
		DailyTotals: dailyTotals(obj, meals),
	}
}

func normalizeDate(v any, path string, opts Options, warn *Warnings) string {
	switch d := v.(type) {
	case nil:
		warn.Add(WarnDateInvalid, path, "missing date, using today")
		return opts.now().Format(dateLayout)
	case string:
		s := strings.TrimSpace(d)
		if t, err := time.Parse(dateLayout, s); err == nil && t.Format(dateLayout) == s {
			return s
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(dateLayout)
			}
		}
	case time.Time:
		if !d.IsZero() {
			return d.Format(dateLayout)
		}
	default:
		if n, ok := number(v); ok && n > 0 {
			// Anything past 1e11 can only be milliseconds.
			if n > 1e11 {
				return time.UnixMilli(int64(n)).UTC().Format(dateLayout)
			}
			return time.Unix(int64(n), 0).UTC().Format(dateLayout)
		}
	}
	warn.Add(WarnDateInvalid, path, "unparseable date %v, using today", v)
	return opts.now().Format(dateLayout)
}

func placeArrayMeals(entries []any, base string, warn *Warnings) DayMeals {
	var meals DayMeals
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		p := indexPath(base, i)
		meal := TransformMeal(entry, p, warn)
		if meal == nil {
			continue
		}

		// The name keyword outranks position: a "Dinner" at index 0 goes to
		// dinner. Position decides only for unlabelled meals.
		var candidates []Slot
		obj, _ := asObject(entry)
		if s, ok := slotAliases[normalizeKey(textField(obj, "slot", "type", "mealType", "meal_type"))]; ok {
			candidates = append(candidates, withNextSnacks(s)...)
		}
		if s, ok := slotFromName(meal.Name); ok {
			candidates = append(candidates, withNextSnacks(s)...)
		}
		if i < len(positionalSlots) {
			candidates = append(candidates, positionalSlots[i])
		}
		candidates = append(candidates, snackSlots...)

		place(&meals, meal, candidates, p, warn)
	}
	return meals
}

// placeKeyedMeals resolves object keys through the alias table. Keys are
// handled in slot order, then lexically, so collisions resolve the same way
// every time. With lenient set, keys that are not slots are ignored silently.
func placeKeyedMeals(obj map[string]any, base string, lenient bool, warn *Warnings) DayMeals {
	type keyed struct {
		key  string
		slot Slot
		rank int
	}
	var known []keyed
	for _, k := range sortedKeys(obj) {
		slot, ok := slotAliases[normalizeKey(k)]
		if !ok {
			if !lenient && obj[k] != nil {
				warn.Add(WarnMealKeyUnknown, base+"."+k, "unknown meal key ignored")
			}
			continue
		}
		known = append(known, keyed{key: k, slot: slot, rank: slotRank(slot)})
	}
	sort.SliceStable(known, func(i, j int) bool { return known[i].rank < known[j].rank })

	var meals DayMeals
	for _, k := range known {
		p := base + "." + k.key
		meal := TransformMeal(obj[k.key], p, warn)
		if meal == nil {
			continue
		}
		place(&meals, meal, withNextSnacks(k.slot), p, warn)
	}
	return meals
}

// place puts meal into the first free candidate. When all candidates are
// taken any free slot is used; a full day reports an overflow.
func place(meals *DayMeals, meal *CanonicalMeal, candidates []Slot, path string, warn *Warnings) {
	for _, s := range candidates {
		if meals.isFree(s) {
			meals.set(s, meal)
			return
		}
	}
	for _, s := range Slots {
		if meals.isFree(s) {
			warn.Add(WarnMealSlotReassigned, path, "preferred slot taken, meal %q moved to %s", meal.Name, s)
			meals.set(s, meal)
			return
		}
	}
	warn.Add(WarnMealOverflow, path, "all six slots taken, meal %q not placed", meal.Name)
}

func withNextSnacks(s Slot) []Slot {
	if !s.isSnack() {
		return []Slot{s}
	}
	for i, snack := range snackSlots {
		if snack == s {
			return snackSlots[i:]
		}
	}
	return []Slot{s}
}

func slotFromName(name string) (Slot, bool) {
	lower := strings.ToLower(name)
	for _, kw := range nameKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.slot, true
			}
		}
	}
	return "", false
}

func slotRank(s Slot) int {
	for i, x := range Slots {
		if x == s {
			return i
		}
	}
	return len(Slots)
}

// dailyTotals prefers upstream totals with nonzero calories, otherwise sums
// the populated slots. Sources are never mixed.
func dailyTotals(obj map[string]any, meals DayMeals) Totals {
	for _, key := range []string{"dailyTotals", "total"} {
		t, ok := objectField(obj, key)
		if !ok {
			continue
		}
		if cal, _ := numberField(t, caloriesKeys...); cal > 0 {
			return readTotals(t)
		}
	}

	var sum Totals
	for _, s := range Slots {
		if m := meals.Get(s); m != nil {
			sum = sum.add(m.Totals)
		}
	}
	return sum.rounded()
}
