package mealplans

import (
	"strings"
	"unicode"
)

const (
	defaultComponentGrams = 100.0
	unnamedMeal           = "Meal"
)

var (
	caloriesKeys = []string{"calories", "kcal"}
	proteinKeys  = []string{"protein"}
	carbsKeys    = []string{"carbs"}
	fatKeys      = []string{"fat", "fats"}
)

type componentShape struct {
	nameKeys  []string
	gramsKeys []string
}

var (
	detailShape    = componentShape{nameKeys: []string{"foodName", "displayName", "name"}, gramsKeys: []string{"grams", "quantity", "amount"}}
	canonicalShape = componentShape{nameKeys: []string{"name"}, gramsKeys: []string{"grams"}}
	metaShape      = componentShape{nameKeys: []string{"name", "foodName", "food"}, gramsKeys: []string{"grams", "amount", "quantity"}}
)

// TransformMeal converts one upstream meal record into a canonical meal.
// nil input is an absent slot and yields nil. Meals are never dropped for
// missing ingredient data or zero totals.
func TransformMeal(raw any, path string, warn *Warnings) *CanonicalMeal {
	if raw == nil {
		return nil
	}

	var rec map[string]any
	switch v := raw.(type) {
	case string:
		rec = map[string]any{"name": v}
	default:
		obj, ok := asObject(raw)
		if !ok {
			warn.Add(WarnMealInvalid, path, "meal is %T, not an object", raw)
			return nil
		}
		rec = obj
	}
	meta, _ := objectField(rec, "meta")

	name := textField(rec, "name", "title", "mealName")
	if name == "" {
		name = textField(meta, "name", "title")
	}
	if name == "" {
		warn.Add(WarnMealInvalid, path, "meal has no name, using %q", unnamedMeal)
		name = unnamedMeal
	}

	totalsObj, textObj := nutrientSource(rec, meta)

	meal := &CanonicalMeal{
		Name:           name,
		Description:    textField(textObj, "description"),
		PreparationTip: textField(textObj, "preparationTip", "preparation_tip", "tip"),
		Components:     resolveComponents(rec, meta, name, path, warn),
		Totals:         readTotals(totalsObj),
	}

	checkDescription(meal, path, warn)
	return meal
}

// nutrientSource picks the object the totals come from and the object the
// description and tip come from. Both always belong to the same record.
func nutrientSource(rec, meta map[string]any) (totals, textSrc map[string]any) {
	if hasNutrients(rec) {
		return rec, rec
	}
	if nested, ok := objectField(rec, "totals", "nutrition"); ok && hasNutrients(nested) {
		return nested, rec
	}
	if hasNutrients(meta) {
		return meta, meta
	}
	if nested, ok := objectField(meta, "totals", "nutrition"); ok && hasNutrients(nested) {
		return nested, meta
	}
	return rec, rec
}

func hasNutrients(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	for _, keys := range [][]string{caloriesKeys, proteinKeys, carbsKeys, fatKeys} {
		if _, ok := numberField(obj, keys...); ok {
			return true
		}
	}
	return false
}

// readTotals defaults each nutrient to zero independently.
func readTotals(obj map[string]any) Totals {
	return Totals{
		Calories: nonNegative(obj, caloriesKeys...),
		Protein:  nonNegative(obj, proteinKeys...),
		Carbs:    nonNegative(obj, carbsKeys...),
		Fat:      nonNegative(obj, fatKeys...),
	}.rounded()
}

func resolveComponents(rec, meta map[string]any, mealName, path string, warn *Warnings) []MealComponent {
	if arr, ok := arrayField(rec, "componentDetails"); ok {
		if comps := mapComponents(arr, detailShape, path+".componentDetails", warn); len(comps) > 0 {
			return comps
		}
	}
	if arr, ok := arrayField(rec, "components"); ok {
		if comps := mapComponents(arr, canonicalShape, path+".components", warn); len(comps) > 0 {
			return comps
		}
	}
	if arr, ok := arrayField(meta, "components"); ok {
		if comps := mapComponents(arr, metaShape, path+".meta.components", warn); len(comps) > 0 {
			return comps
		}
	}
	if _, ok := field(meta, "recipe"); ok {
		grams, found := numberField(rec, "quantity", "grams", "servingGrams")
		if !found {
			grams, found = numberField(meta, "quantity", "grams", "servingGrams")
		}
		if !found || grams <= 0 {
			grams = defaultComponentGrams
		}
		return []MealComponent{{Name: mealName, Grams: grams}}
	}
	return []MealComponent{{Name: mealName, Grams: defaultComponentGrams}}
}

func mapComponents(entries []any, shape componentShape, path string, warn *Warnings) []MealComponent {
	out := make([]MealComponent, 0, len(entries))
	for i, entry := range entries {
		c, ok := mapComponent(entry, shape)
		if !ok {
			warn.Add(WarnComponentInvalid, indexPath(path, i), "component without a usable name skipped")
			continue
		}
		out = append(out, c)
	}
	return out
}

func mapComponent(entry any, shape componentShape) (MealComponent, bool) {
	if s := text(entry); s != "" {
		return MealComponent{Name: s}, true
	}
	obj, ok := asObject(entry)
	if !ok {
		return MealComponent{}, false
	}

	name := textField(obj, shape.nameKeys...)
	if name == "" {
		if food, ok := objectField(obj, "food"); ok {
			name = textField(food, "name", "displayName")
		}
	}
	if name == "" {
		return MealComponent{}, false
	}

	c := MealComponent{Name: name, Grams: nonNegative(obj, shape.gramsKeys...)}
	c.Calories = optionalNutrient(obj, caloriesKeys, roundInt)
	c.Protein = optionalNutrient(obj, proteinKeys, round1)
	c.Carbs = optionalNutrient(obj, carbsKeys, round1)
	c.Fat = optionalNutrient(obj, fatKeys, round1)
	return c, true
}

func optionalNutrient(obj map[string]any, keys []string, round func(float64) float64) *float64 {
	v, ok := numberField(obj, keys...)
	if !ok {
		return nil
	}
	if v < 0 {
		v = 0
	}
	v = round(v)
	return &v
}

// ingredientStems maps ingredients commonly named in descriptions to
// English words, matched whole with an optional plural suffix, and Croatian
// stems, matched as word prefixes since the nouns inflect.
var ingredientStems = []struct {
	ingredient string
	words      []string
	stems      []string
}{
	{"banana", []string{"banana"}, []string{"banan"}},
	{"milk", []string{"milk"}, []string{"mlijek"}},
	{"egg", []string{"egg"}, []string{"jaj"}},
	{"chicken", []string{"chicken"}, []string{"pilet", "pileć"}},
	{"rice", []string{"rice"}, []string{"riž"}},
	{"oats", []string{"oat", "oatmeal"}, []string{"zob"}},
	{"yogurt", []string{"yogurt", "yoghurt"}, []string{"jogurt"}},
	{"salmon", []string{"salmon"}, []string{"losos"}},
	{"tuna", []string{"tuna"}, []string{"tunj"}},
	{"avocado", []string{"avocado"}, []string{"avokad"}},
	{"potato", []string{"potato"}, []string{"krumpir"}},
	{"bread", []string{"bread"}, []string{"kruh"}},
	{"beef", []string{"beef"}, []string{"junet", "govedin"}},
}

// checkDescription flags ingredients the description names but no
// component carries. Advisory only.
func checkDescription(meal *CanonicalMeal, path string, warn *Warnings) {
	if meal.Description == "" {
		return
	}
	words := strings.FieldsFunc(strings.ToLower(meal.Description), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	names := make([]string, len(meal.Components))
	for i, c := range meal.Components {
		names[i] = strings.ToLower(c.Name)
	}

	for _, ing := range ingredientStems {
		if !anyWordMatches(words, ing.words) && !anyWordHasStem(words, ing.stems) {
			continue
		}
		if anyNameContains(names, ing.words) || anyNameContains(names, ing.stems) {
			continue
		}
		warn.Add(WarnDescriptionMismatch, path, "description mentions %s but no component matches", ing.ingredient)
	}
}

func anyWordMatches(words, names []string) bool {
	for _, w := range words {
		for _, n := range names {
			if w == n || w == n+"s" || w == n+"es" {
				return true
			}
		}
	}
	return false
}

func anyWordHasStem(words, stems []string) bool {
	for _, w := range words {
		for _, s := range stems {
			if strings.HasPrefix(w, s) {
				return true
			}
		}
	}
	return false
}

func anyNameContains(names, stems []string) bool {
	for _, n := range names {
		for _, s := range stems {
			if strings.Contains(n, s) {
				return true
			}
		}
	}
	return false
}
