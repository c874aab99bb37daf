package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"zipmarket/internal/domain"
	"zipmarket/internal/infrastructure/fetch"
	"zipmarket/internal/ports"
	"zipmarket/internal/reduce"
)

// The market tracker's region descriptor is free text; only rows matching
// this pattern join against the ZIP universe.
var zipExpr = regexp.MustCompile(`Zip Code:\s*(\d{5})`)

// ExtractZipCode pulls the 5-digit ZIP out of a region descriptor, or
// returns "" when the descriptor carries none.
func ExtractZipCode(region string) string {
	m := zipExpr.FindStringSubmatch(region)
	if m == nil {
		return ""
	}
	return m[1]
}

const (
	regionVendorColumn = "REGION"
	periodVendorColumn = "PERIOD_END"
	tempFeedFile       = "market_tracker_temp.tsv.gz"
	defaultBatchSize   = 100000
)

// marketColumns maps vendor column names to the internal schema. Columns
// outside this whitelist (plus REGION, the join key) are discarded.
var marketColumns = map[string]string{
	"MEDIAN_SALE_PRICE": "median_sale_price", "MEDIAN_SALE_PRICE_MOM": "median_sale_price_mom", "MEDIAN_SALE_PRICE_YOY": "median_sale_price_yoy",
	"MEDIAN_LIST_PRICE": "median_list_price", "MEDIAN_LIST_PRICE_MOM": "median_list_price_mom", "MEDIAN_LIST_PRICE_YOY": "median_list_price_yoy",
	"MEDIAN_PPSF": "median_ppsf", "MEDIAN_PPSF_MOM": "median_ppsf_mom", "MEDIAN_PPSF_YOY": "median_ppsf_yoy",
	"HOMES_SOLD": "homes_sold", "HOMES_SOLD_MOM": "homes_sold_mom", "HOMES_SOLD_YOY": "homes_sold_yoy",
	"PENDING_SALES": "pending_sales", "PENDING_SALES_MOM": "pending_sales_mom", "PENDING_SALES_YOY": "pending_sales_yoy",
	"NEW_LISTINGS": "new_listings", "NEW_LISTINGS_MOM": "new_listings_mom", "NEW_LISTINGS_YOY": "new_listings_yoy",
	"INVENTORY": "inventory", "INVENTORY_MOM": "inventory_mom", "INVENTORY_YOY": "inventory_yoy",
	"MEDIAN_DOM": "median_dom", "MEDIAN_DOM_MOM": "median_dom_mom", "MEDIAN_DOM_YOY": "median_dom_yoy",
	"AVG_SALE_TO_LIST": "avg_sale_to_list_ratio", "AVG_SALE_TO_LIST_MOM": "avg_sale_to_list_mom", "AVG_SALE_TO_LIST_YOY": "avg_sale_to_list_ratio_yoy",
	"SOLD_ABOVE_LIST": "sold_above_list", "SOLD_ABOVE_LIST_MOM": "sold_above_list_mom", "SOLD_ABOVE_LIST_YOY": "sold_above_list_yoy",
	"OFF_MARKET_IN_TWO_WEEKS": "off_market_in_two_weeks", "OFF_MARKET_IN_TWO_WEEKS_MOM": "off_market_in_two_weeks_mom", "OFF_MARKET_IN_TWO_WEEKS_YOY": "off_market_in_two_weeks_yoy",
}

// RedfinSource downloads the gzipped market-tracker TSV to a temp file and
// reduces it, in row batches, down to the latest reporting period per ZIP.
type RedfinSource struct {
	client    *fetch.Client
	url       string
	tempDir   string
	batchSize int
	logger    *slog.Logger
}

var _ ports.MarketTrackerSource = (*RedfinSource)(nil)

// NewRedfinSource wires the shared fetch client with the feed endpoint.
// tempDir holds the downloaded file for the duration of the parse.
func NewRedfinSource(client *fetch.Client, url, tempDir string, logger *slog.Logger) *RedfinSource {
	return &RedfinSource{
		client:    client,
		url:       url,
		tempDir:   tempDir,
		batchSize: defaultBatchSize,
		logger:    logger,
	}
}

// Fetch downloads, decompresses and reduces the feed. The temp file is
// removed before returning.
func (s *RedfinSource) Fetch(ctx context.Context) (map[string]domain.MarketRow, error) {
	temp := filepath.Join(s.tempDir, tempFeedFile)
	if err := s.client.Download(ctx, s.url, temp); err != nil {
		return nil, fmt.Errorf("download market tracker: %w", err)
	}
	defer os.Remove(temp)

	f, err := os.Open(temp)
	if err != nil {
		return nil, fmt.Errorf("open market tracker temp file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompress market tracker: %w", err)
	}
	defer gz.Close()

	return s.reduceRows(gz)
}

func (s *RedfinSource) reduceRows(r io.Reader) (map[string]domain.MarketRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read market tracker header: %w", err)
	}

	regionIdx, periodIdx := -1, -1
	kept := make(map[int]string)
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch name {
		case regionVendorColumn:
			regionIdx = i
		case periodVendorColumn:
			periodIdx = i
		default:
			if internal, ok := marketColumns[name]; ok {
				kept[i] = internal
			}
		}
	}
	if regionIdx < 0 || periodIdx < 0 {
		return nil, fmt.Errorf("market tracker feed is missing %s or %s", regionVendorColumn, periodVendorColumn)
	}

	total := reduce.NewLatest()
	batch := reduce.NewLatest()
	rows, dropped := 0, 0

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read market tracker row: %w", err)
		}
		rows++

		zip := ExtractZipCode(field(rec, regionIdx))
		if zip == "" {
			dropped++
			continue
		}

		period, ok := parsePeriodEnd(field(rec, periodIdx))
		if !ok {
			dropped++
			continue
		}

		fields := make(map[string]string, len(kept))
		for idx, name := range kept {
			fields[name] = field(rec, idx)
		}

		batch.Add(domain.MarketRow{Zip: zip, PeriodEnd: period, Fields: fields})
		if rows%s.batchSize == 0 {
			total.Merge(batch)
			batch = reduce.NewLatest()
		}
	}
	total.Merge(batch)

	s.log("market tracker reduced", "rows", rows, "dropped", dropped, "zips", total.Len())
	return total.Rows(), nil
}

func parsePeriodEnd(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *RedfinSource) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
