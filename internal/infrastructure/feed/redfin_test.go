package feed

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"zipmarket/internal/infrastructure/fetch"
)

func TestExtractZipCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12345", ExtractZipCode("Zip Code: 12345"))
	require.Equal(t, "98765", ExtractZipCode("something Zip Code: 98765 something"))
	require.Equal(t, "00501", ExtractZipCode("Zip Code:00501"))
	require.Equal(t, "", ExtractZipCode("No zip here"))
	require.Equal(t, "", ExtractZipCode(""))
	require.Equal(t, "", ExtractZipCode("Zip Code: 1234"))
}

func gzipTSV(t *testing.T, lines []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestRedfinSourceFetch(t *testing.T) {
	t.Parallel()

	body := gzipTSV(t, []string{
		"REGION\tPERIOD_END\tMEDIAN_SALE_PRICE\tHOMES_SOLD\tPROPERTY_TYPE",
		"Zip Code: 78209\t2025-04-30\t640000\t21\tAll Residential",
		"Zip Code: 78209\t2025-06-30\t655000\t18\tAll Residential",
		"Zip Code: 78209\t2025-05-31\t648000\t25\tAll Residential",
		"Zip Code: 78212\t2025-06-30\t415000\t33\tAll Residential",
		"San Antonio, TX metro area\t2025-06-30\t389000\t1200\tAll Residential",
		"Zip Code: 78215\tnot-a-date\t500000\t5\tAll Residential",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := fetch.NewClient(1, 5*time.Second, nil)
	src := NewRedfinSource(client, server.URL, t.TempDir(), nil)
	src.batchSize = 2 // force chunked reduction

	rows, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	latest, ok := rows["78209"]
	require.True(t, ok)
	require.Equal(t, time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC), latest.PeriodEnd)
	require.Equal(t, "655000", latest.Fields["median_sale_price"])
	require.Equal(t, "18", latest.Fields["homes_sold"])
	// Whitelist projection: unmapped vendor columns disappear.
	require.NotContains(t, latest.Fields, "PROPERTY_TYPE")
	require.NotContains(t, latest.Fields, "property_type")

	require.Equal(t, "415000", rows["78212"].Fields["median_sale_price"])
}

func TestRedfinSourceMissingJoinColumns(t *testing.T) {
	t.Parallel()

	body := gzipTSV(t, []string{
		"MEDIAN_SALE_PRICE\tHOMES_SOLD",
		"640000\t21",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := fetch.NewClient(1, 5*time.Second, nil)
	src := NewRedfinSource(client, server.URL, t.TempDir(), nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "REGION")
}
