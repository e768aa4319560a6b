package mealplans

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Upstream documents are decoded into map[string]any / []any trees. The
// helpers below read them without trusting any field type.

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// field returns the first non-nil value among names. An exact key match wins;
// otherwise keys are compared case-insensitively, smallest key first.
func field(obj map[string]any, names ...string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	for _, name := range names {
		if v, ok := obj[name]; ok && v != nil {
			return v, true
		}
	}
	var keys []string
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range names {
		for _, k := range keys {
			if strings.EqualFold(k, name) && obj[k] != nil {
				return obj[k], true
			}
		}
	}
	return nil, false
}

// path walks nested objects, e.g. path(doc, "data", "result", "plan").
func path(obj map[string]any, keys ...string) (any, bool) {
	var cur any = obj
	for _, k := range keys {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = field(m, k)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func arrayField(obj map[string]any, names ...string) ([]any, bool) {
	v, ok := field(obj, names...)
	if !ok {
		return nil, false
	}
	return asArray(v)
}

func objectField(obj map[string]any, names ...string) (map[string]any, bool) {
	v, ok := field(obj, names...)
	if !ok {
		return nil, false
	}
	return asObject(v)
}

// number coerces JSON numbers, numeric strings and Go numeric types.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(n, ",", ".")), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberField(obj map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := field(obj, name); ok {
			if f, ok := number(v); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// nonNegative reads a number field, clamping to zero. Absent reads as zero.
func nonNegative(obj map[string]any, names ...string) float64 {
	f, _ := numberField(obj, names...)
	if f < 0 {
		return 0
	}
	return f
}

func text(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func textField(obj map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := field(obj, name); ok {
			if s := text(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func indexPath(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

func roundInt(v float64) float64 {
	return math.Round(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// sortedKeys returns object keys in lexical order.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeKey lower-cases and drops separators: "Extra_Snack" -> "extrasnack".
func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}
