package feed

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"zipmarket/internal/domain"
	"zipmarket/internal/infrastructure/fetch"
	"zipmarket/internal/ports"
)

// The home-value feed is one row per ZIP with one column per historical
// month; MOM/YOY ratios need at least this many trailing months.
const minHistoryMonths = 13

const regionColumn = "RegionName"

var monthColumnExpr = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ZillowSource pulls the wide monthly home-value-index CSV and derives the
// latest index value plus its month-over-month and year-over-year ratios.
type ZillowSource struct {
	client *fetch.Client
	url    string
	logger *slog.Logger
}

var _ ports.HomeValueSource = (*ZillowSource)(nil)

// NewZillowSource wires the shared fetch client with the feed endpoint.
func NewZillowSource(client *fetch.Client, url string, logger *slog.Logger) *ZillowSource {
	return &ZillowSource{client: client, url: url, logger: logger}
}

// Fetch downloads and processes the feed. An upstream failure propagates as
// domain.ErrFeedUnavailable; insufficient history yields an empty result.
func (z *ZillowSource) Fetch(ctx context.Context) (map[string]domain.HomeValue, error) {
	body, err := z.client.Get(ctx, z.url)
	if err != nil {
		return nil, fmt.Errorf("fetch home value index: %w", err)
	}
	return z.parse(bytes.NewReader(body))
}

func (z *ZillowSource) parse(r io.Reader) (map[string]domain.HomeValue, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read home value header: %w", err)
	}

	regionIdx := -1
	type monthCol struct {
		name string
		idx  int
	}
	var months []monthCol
	for i, name := range header {
		switch {
		case name == regionColumn:
			regionIdx = i
		case monthColumnExpr.MatchString(name):
			months = append(months, monthCol{name: name, idx: i})
		}
	}
	if regionIdx < 0 {
		return nil, fmt.Errorf("home value feed is missing the %s column", regionColumn)
	}

	sort.Slice(months, func(i, j int) bool { return months[i].name < months[j].name })

	if len(months) < minHistoryMonths {
		z.log("insufficient home value history, skipping feed",
			"months", len(months), "required", minHistoryMonths)
		return map[string]domain.HomeValue{}, nil
	}

	curr := months[len(months)-1].idx
	mom := months[len(months)-2].idx
	yoy := months[len(months)-minHistoryMonths].idx

	results := make(map[string]domain.HomeValue)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read home value row: %w", err)
		}

		latest, ok := cell(row, curr)
		if !ok {
			continue
		}

		zip := padZip(field(row, regionIdx))
		if zip == "" {
			continue
		}

		results[zip] = domain.HomeValue{
			Index: round(latest, 2),
			MOM:   ratio(latest, row, mom),
			YOY:   ratio(latest, row, yoy),
		}
	}

	z.log("home value feed processed", "zips", len(results), "latest_month", months[len(months)-1].name)
	return results, nil
}

// ratio computes latest/base − 1 rounded to 3 decimals, or nil when the
// base month is missing or zero.
func ratio(latest float64, row []string, idx int) *float64 {
	base, ok := cell(row, idx)
	if !ok || base == 0 {
		return nil
	}
	r := round(latest/base-1, 3)
	return &r
}

func cell(row []string, idx int) (float64, bool) {
	s := strings.TrimSpace(field(row, idx))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func round(f float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(f*p) / p
}

func padZip(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for len(s) < 5 {
		s = "0" + s
	}
	return s
}

func (z *ZillowSource) log(msg string, args ...any) {
	if z.logger != nil {
		z.logger.Info(msg, args...)
	}
}
