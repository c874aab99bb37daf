// Package reduce keeps, per ZIP code, the single market-tracker row with the
// most recent reporting period. Input arrives in arbitrary order and in
// multiple batches, so partial reductions must merge to the same result as a
// single pass.
package reduce

import (
	"strings"

	"zipmarket/internal/domain"
)

// Latest is a last-period-wins reduction keyed by ZIP code.
type Latest struct {
	rows map[string]domain.MarketRow
}

// NewLatest returns an empty reduction.
func NewLatest() *Latest {
	return &Latest{rows: make(map[string]domain.MarketRow)}
}

// Add offers a row to the reduction. The row with the later period wins; on
// an equal period the row with fewer empty fields wins, and when that also
// ties the incumbent stays.
func (l *Latest) Add(row domain.MarketRow) {
	current, ok := l.rows[row.Zip]
	if !ok || wins(row, current) {
		l.rows[row.Zip] = row
	}
}

// Merge folds another partial reduction into this one.
func (l *Latest) Merge(other *Latest) {
	if other == nil {
		return
	}
	for _, row := range other.rows {
		l.Add(row)
	}
}

// Rows exposes the surviving row per ZIP code.
func (l *Latest) Rows() map[string]domain.MarketRow {
	return l.rows
}

// Len reports how many ZIP codes survived so far.
func (l *Latest) Len() int {
	return len(l.rows)
}

func wins(candidate, incumbent domain.MarketRow) bool {
	if candidate.PeriodEnd.After(incumbent.PeriodEnd) {
		return true
	}
	if !candidate.PeriodEnd.Equal(incumbent.PeriodEnd) {
		return false
	}
	return gaps(candidate) < gaps(incumbent)
}

func gaps(row domain.MarketRow) int {
	n := 0
	for _, v := range row.Fields {
		if strings.TrimSpace(v) == "" {
			n++
		}
	}
	return n
}
