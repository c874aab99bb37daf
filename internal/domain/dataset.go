package domain

import (
	"errors"
	"time"
)

// ErrFeedUnavailable marks an upstream feed that could not be fetched after
// the configured number of attempts. The run exits cleanly without writing
// output when it sees this.
var ErrFeedUnavailable = errors.New("upstream feed unavailable")

// Record holds one ZIP code's field values keyed by internal field name.
// Values are nil, float64 or string once formatted; before formatting they
// may also be raw CSV cell strings or a time.Time for the reporting period.
type Record map[string]any

// FieldOrder is the declared output field list. Every record in the dataset
// carries exactly these fields, in this order, with nulls for absent values.
var FieldOrder = []string{
	"city", "county", "state", "metro", "lat", "lng", "period_end",
	"zhvi", "zhvi_mom", "zhvi_yoy",
	"median_sale_price", "median_sale_price_mom", "median_sale_price_yoy",
	"median_list_price", "median_list_price_mom", "median_list_price_yoy",
	"median_ppsf", "median_ppsf_mom", "median_ppsf_yoy",
	"homes_sold", "homes_sold_mom", "homes_sold_yoy",
	"pending_sales", "pending_sales_mom", "pending_sales_yoy",
	"new_listings", "new_listings_mom", "new_listings_yoy",
	"inventory", "inventory_mom", "inventory_yoy",
	"median_dom", "median_dom_mom", "median_dom_yoy",
	"avg_sale_to_list_ratio", "avg_sale_to_list_mom", "avg_sale_to_list_ratio_yoy",
	"sold_above_list", "sold_above_list_mom", "sold_above_list_yoy",
	"off_market_in_two_weeks", "off_market_in_two_weeks_mom", "off_market_in_two_weeks_yoy",
}

// LiteFields is the subset kept by the lite projection for the map's
// initial paint.
var LiteFields = []string{
	"city", "county", "state", "metro", "lat", "lng", "period_end", "zhvi",
}

// Dataset is the fully assembled per-ZIP output of one pipeline run.
type Dataset struct {
	LastUpdatedUTC string
	Fields         []string
	Records        map[string]Record
}

// Project returns a copy of the dataset restricted to the requested fields.
// Fields unknown to the dataset are skipped; the timestamp is preserved.
func (d Dataset) Project(fields []string) Dataset {
	known := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		known[f] = struct{}{}
	}

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := known[f]; ok {
			kept = append(kept, f)
		}
	}

	records := make(map[string]Record, len(d.Records))
	for zip, rec := range d.Records {
		projected := make(Record, len(kept))
		for _, f := range kept {
			projected[f] = rec[f]
		}
		records[zip] = projected
	}

	return Dataset{
		LastUpdatedUTC: d.LastUpdatedUTC,
		Fields:         kept,
		Records:        records,
	}
}

// HomeValue carries the home-value-index metrics derived for one ZIP code
// from the wide monthly feed. MOM and YOY are nil when the comparison month
// is missing or zero.
type HomeValue struct {
	Index float64
	MOM   *float64
	YOY   *float64
}

// MarketRow is one normalized market-tracker row: the ZIP join key, the
// reporting period and the whitelisted indicator cells as raw strings.
type MarketRow struct {
	Zip       string
	PeriodEnd time.Time
	Fields    map[string]string
}

// RunSummary is the change-summary artifact written next to the dataset.
type RunSummary struct {
	LastUpdatedUTC    string `json:"last_updated_utc"`
	PeriodEnd         string `json:"period_end"`
	TotalZipCodes     int    `json:"total_zip_codes"`
	ZipCodesWithData  int    `json:"zip_codes_with_data"`
	ZipCodesChanged   int    `json:"zip_codes_changed"`
	DataPointsChanged int    `json:"data_points_changed"`
}
