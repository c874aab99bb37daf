package ports

import (
	"context"
	"time"

	"zipmarket/internal/domain"
)

// MappingSource loads the authoritative ZIP→metadata reference table.
// The returned map is keyed by zero-padded ZIP code; each entry holds the
// raw metadata cells (city, county, state, metro, lat, lng) by column name.
type MappingSource interface {
	Load(ctx context.Context) (map[string]map[string]string, error)
}

// HomeValueSource fetches the monthly home-value-index feed and derives
// the current index plus its MOM/YOY ratios per ZIP code.
type HomeValueSource interface {
	Fetch(ctx context.Context) (map[string]domain.HomeValue, error)
}

// MarketTrackerSource fetches the row-per-ZIP-per-month market feed and
// returns the latest reporting period's row per ZIP code.
type MarketTrackerSource interface {
	Fetch(ctx context.Context) (map[string]domain.MarketRow, error)
}

// DatasetStore persists the assembled dataset and its run summary, and
// reads back the previously persisted dataset for diffing.
type DatasetStore interface {
	// ReadPrevious returns nil (not an error) when no usable previous
	// dataset exists.
	ReadPrevious(ctx context.Context) (*domain.Dataset, error)
	WriteDataset(ctx context.Context, ds domain.Dataset) error
	WriteSummary(ctx context.Context, summary domain.RunSummary) error
}

// Scheduler controls when pipeline runs execute in periodic mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
