package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zipmarket/internal/domain"
)

func TestValuePercentConversion(t *testing.T) {
	t.Parallel()

	require.Equal(t, 5.0, Value("median_sale_price_mom", 0.05))
	require.Equal(t, 5.0, Value("median_sale_price_mom", "0.05"))
	require.Equal(t, -3.2, Value("inventory_yoy", -0.032))
	require.Equal(t, 41.7, Value("sold_above_list", 0.41666))
	require.Equal(t, 12.5, Value("off_market_in_two_weeks", 0.125))
	require.Equal(t, 98.7, Value("avg_sale_to_list_ratio", 0.98654))

	require.Nil(t, Value("median_sale_price_mom", nil))
	require.Nil(t, Value("median_sale_price_mom", ""))
	require.Nil(t, Value("median_sale_price_mom", "NA"))
	require.Nil(t, Value("median_sale_price_mom", "not a number"))
}

func TestValueDomDeltasStayInDays(t *testing.T) {
	t.Parallel()

	// Days-on-market deltas are day counts, not fractions.
	require.Equal(t, 4.0, Value("median_dom_mom", 4.0))
	require.Equal(t, -2.5, Value("median_dom_yoy", "-2.5"))
	// The base value is a duration and truncates to whole days.
	require.Equal(t, 33.0, Value("median_dom", "33.7"))
}

func TestValueIntegerTruncation(t *testing.T) {
	t.Parallel()

	require.Equal(t, 412500.0, Value("median_sale_price", "412500.99"))
	require.Equal(t, 17.0, Value("homes_sold", 17.6))
	require.Equal(t, 355000.0, Value("zhvi", 355000.42))
	require.Equal(t, 8.0, Value("inventory", "8"))
	require.Equal(t, 12.0, Value("new_listings", "12.0"))
	require.Equal(t, 3.0, Value("pending_sales", 3.9))
}

func TestValueCoordinatesAndPpsf(t *testing.T) {
	t.Parallel()

	require.Equal(t, 29.42412, Value("lat", "29.4241205"))
	require.Equal(t, -98.49363, Value("lng", "-98.4936282"))
	require.Equal(t, 215.37, Value("median_ppsf", "215.3651"))
	require.Nil(t, Value("lat", ""))
}

func TestValueDates(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2025-06-30", Value("period_end", time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2025-06-30", Value("period_end", "2025-06-30 00:00:00"))
	require.Equal(t, "2025-06-30", Value("period_end", "2025-06-30"))
	require.Nil(t, Value("period_end", ""))
	require.Nil(t, Value("period_end", nil))
}

func TestValueStringsAndDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, "San Antonio", Value("city", " San Antonio "))
	require.Nil(t, Value("metro", "  "))
	// Unclassified numerics round to 2 places.
	require.Equal(t, 1.23, Value("some_generic_field", "1.2345"))
}

func TestRecordUniformShape(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"city":              "Alamo Heights",
		"lat":               "29.4812345",
		"median_sale_price": "650000",
		"ignored_column":    "dropped",
	}

	rec := Record(raw, domain.FieldOrder)
	require.Len(t, rec, len(domain.FieldOrder))
	require.Equal(t, "Alamo Heights", rec["city"])
	require.Equal(t, 29.48123, rec["lat"])
	require.Equal(t, 650000.0, rec["median_sale_price"])
	require.Nil(t, rec["zhvi"])
	require.NotContains(t, rec, "ignored_column")
}

// Re-running the formatter over already-formatted values must be a no-op
// for every rule that does not rescale units (ratio fields convert
// fraction to percentage exactly once, so they stay null here).
func TestRecordIdempotentOnFormattedValues(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"city":              "Terrell Hills",
		"state":             "TX",
		"lat":               "29.47634",
		"lng":               "-98.44829",
		"period_end":        "2025-05-31",
		"median_sale_price": "825000",
		"median_ppsf":       "301.12",
		"median_dom":        "21",
	}

	once := Record(raw, domain.FieldOrder)

	again := Record(map[string]any(once), domain.FieldOrder)
	require.Equal(t, once, again)
}
