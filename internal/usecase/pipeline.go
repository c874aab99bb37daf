package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"zipmarket/internal/diff"
	"zipmarket/internal/domain"
	"zipmarket/internal/format"
	"zipmarket/internal/ports"
)

// PipelineDeps wires all driven adapters into the pipeline.
type PipelineDeps struct {
	Mapping       ports.MappingSource
	HomeValues    ports.HomeValueSource
	MarketTracker ports.MarketTrackerSource
	Store         ports.DatasetStore
	Logger        *slog.Logger
}

// Pipeline implements one full dataset refresh: load mapping, fetch feeds,
// join and format per ZIP, diff against the previous run, persist.
type Pipeline struct {
	mapping       ports.MappingSource
	homeValues    ports.HomeValueSource
	marketTracker ports.MarketTrackerSource
	store         ports.DatasetStore
	logger        *slog.Logger
	now           func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		mapping:       deps.Mapping,
		homeValues:    deps.HomeValues,
		marketTracker: deps.MarketTracker,
		store:         deps.Store,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// Run executes the six pipeline stages start to finish. A feed that stays
// unreachable after retries surfaces as domain.ErrFeedUnavailable and
// nothing is written.
func (p *Pipeline) Run(ctx context.Context) error {
	p.info("pipeline run starting")

	mapping, err := p.mapping.Load(ctx)
	if err != nil {
		return fmt.Errorf("load zip mapping: %w", err)
	}
	if len(mapping) == 0 {
		return fmt.Errorf("zip mapping is empty")
	}

	homeValues, err := p.homeValues.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("home value feed: %w", err)
	}

	market, err := p.marketTracker.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("market tracker feed: %w", err)
	}

	records, withData, maxPeriod := p.assemble(mapping, homeValues, market)
	p.logSample(records)

	prev, err := p.store.ReadPrevious(ctx)
	if err != nil {
		return fmt.Errorf("read previous dataset: %w", err)
	}

	var changes diff.Result
	if prev != nil {
		changes = diff.Compare(prev.Records, records)
	}

	runStamp := p.now().UTC().Format(time.RFC3339)
	stamp := runStamp
	// An idempotent re-run must not manufacture a fake update event.
	if prev != nil && prev.LastUpdatedUTC != "" && changes.Unchanged() {
		stamp = prev.LastUpdatedUTC
	}

	ds := domain.Dataset{
		LastUpdatedUTC: stamp,
		Fields:         domain.FieldOrder,
		Records:        records,
	}
	if err := p.store.WriteDataset(ctx, ds); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}

	summary := domain.RunSummary{
		LastUpdatedUTC:    runStamp,
		PeriodEnd:         maxPeriod,
		TotalZipCodes:     len(records),
		ZipCodesWithData:  withData,
		ZipCodesChanged:   changes.ZipsChanged(),
		DataPointsChanged: changes.DataPointsChanged,
	}
	if err := p.store.WriteSummary(ctx, summary); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	p.info("pipeline run completed",
		"zips", len(records),
		"zips_with_data", withData,
		"zips_changed", changes.ZipsChanged(),
		"data_points_changed", changes.DataPointsChanged,
		"period_end", maxPeriod)
	return nil
}

// assemble overlays, per mapped ZIP, metadata → market tracker → home
// values, then formats the result into the declared field order. The
// mapping decides which ZIPs exist; feed rows for unmapped ZIPs are
// dropped here simply by never being looked up.
func (p *Pipeline) assemble(
	mapping map[string]map[string]string,
	homeValues map[string]domain.HomeValue,
	market map[string]domain.MarketRow,
) (map[string]domain.Record, int, string) {
	records := make(map[string]domain.Record, len(mapping))
	withData := 0
	maxPeriod := ""

	for zip, meta := range mapping {
		raw := make(map[string]any, len(domain.FieldOrder))
		for col, v := range meta {
			raw[col] = v
		}

		hasSource := false
		if row, ok := market[zip]; ok {
			hasSource = true
			raw["period_end"] = row.PeriodEnd
			for field, v := range row.Fields {
				raw[field] = v
			}
		}
		if hv, ok := homeValues[zip]; ok {
			hasSource = true
			raw["zhvi"] = hv.Index
			raw["zhvi_mom"] = deref(hv.MOM)
			raw["zhvi_yoy"] = deref(hv.YOY)
		}

		rec := format.Record(raw, domain.FieldOrder)
		if period, ok := rec["period_end"].(string); ok && period > maxPeriod {
			maxPeriod = period
		}
		if hasSource {
			withData++
		}
		records[zip] = rec
	}

	return records, withData, maxPeriod
}

// logSample dumps one arbitrary assembled record so a run log can be
// eyeballed for sane output.
func (p *Pipeline) logSample(records map[string]domain.Record) {
	for zip, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return
		}
		p.info("verification sample", "zip", zip, "record", string(raw))
		return
	}
}

func deref(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
