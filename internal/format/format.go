// Package format applies the per-field display rules that turn raw feed
// values into the numbers the dataset actually publishes: fixed rounding,
// fraction-to-percentage scaling, integer truncation and null mapping.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"zipmarket/internal/domain"
)

// Markers flagging ratio-like fields whose stored source values are
// fractions in [0,1] and get published as percentages.
var ratioMarkers = []string{"_mom", "_yoy", "sold_above_list", "off_market_in_two_weeks"}

// Markers flagging count/price/duration fields published as whole numbers.
var integerMarkers = []string{"price", "sold", "inventory", "dom", "listings", "pending", "zhvi"}

// Record formats every field of the declared order from the raw overlay.
// Fields absent from raw come out as nil, so every record has an identical
// shape.
func Record(raw map[string]any, order []string) domain.Record {
	out := make(domain.Record, len(order))
	for _, name := range order {
		out[name] = Value(name, raw[name])
	}
	return out
}

// Value formats a single field. Anything missing, empty or unparseable
// becomes nil; a bad value never aborts the surrounding record.
func Value(name string, v any) any {
	if v == nil {
		return nil
	}

	switch name {
	case "period_end":
		return formatDate(v)
	case "lat", "lng":
		return roundTo(v, 5)
	case "median_ppsf":
		return roundTo(v, 2)
	case "avg_sale_to_list_ratio":
		return percent(v)
	case "city", "county", "state", "metro":
		return cleanString(v)
	}

	if containsAny(name, ratioMarkers) {
		if strings.Contains(name, "dom") {
			// Days-on-market deltas are already in day units.
			return roundTo(v, 1)
		}
		return percent(v)
	}

	if containsAny(name, integerMarkers) {
		return truncate(v)
	}

	return roundTo(v, 2)
}

func containsAny(name string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

func formatDate(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format("2006-01-02")
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if len(s) > 10 {
			return s[:10]
		}
		return s
	}
	return nil
}

func cleanString(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

// toFloat accepts the value shapes that reach the formatter: parsed floats
// from the home-value feed, raw cell strings from the market tracker, and
// numbers read back from JSON.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return toFloat(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "na") || strings.EqualFold(s, "nan") {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func roundTo(v any, places int) any {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

// percent scales a stored fraction to a percentage with one decimal.
func percent(v any) any {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return math.Round(f*100*10) / 10
}

func truncate(v any) any {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return math.Trunc(f)
}
