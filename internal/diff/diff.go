// Package diff compares two dataset snapshots field by field so a run can
// report how much actually changed, and skip the timestamp bump when
// nothing did.
package diff

import "zipmarket/internal/domain"

// Result summarizes the differences between the previous and the newly
// computed per-ZIP records.
type Result struct {
	ZipsAdded         int
	ZipsRemoved       int
	ZipsModified      int
	DataPointsChanged int
}

// ZipsChanged is the total number of ZIP codes that are new, gone or
// modified.
func (r Result) ZipsChanged() int {
	return r.ZipsAdded + r.ZipsRemoved + r.ZipsModified
}

// Unchanged reports whether the two snapshots are identical.
func (r Result) Unchanged() bool {
	return r.ZipsChanged() == 0 && r.DataPointsChanged == 0
}

// Compare walks both snapshots. For ZIPs present in both, every field of
// the new record is compared against the old one (fields absent from the
// old record count as changed). For added ZIPs each non-null field counts
// as a changed data point; removals count at the ZIP level only.
func Compare(old, new map[string]domain.Record) Result {
	var res Result

	for zip, rec := range new {
		prev, ok := old[zip]
		if !ok {
			res.ZipsAdded++
			for _, v := range rec {
				if v != nil {
					res.DataPointsChanged++
				}
			}
			continue
		}

		changed := 0
		for field, v := range rec {
			if !valueEqual(v, prev[field]) {
				changed++
			}
		}
		if changed > 0 {
			res.ZipsModified++
			res.DataPointsChanged += changed
		}
	}

	for zip := range old {
		if _, ok := new[zip]; !ok {
			res.ZipsRemoved++
		}
	}

	return res
}

// valueEqual compares formatted values. Both sides are nil, float64 or
// string: freshly formatted records only hold those shapes, and so do
// records decoded back from JSON.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}
