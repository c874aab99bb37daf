// Package storage persists pipeline artifacts as JSON files: the columnar
// dataset (optionally gzipped), the lite projection and the run summary.
// It also reads back whatever the previous run left behind, in either the
// legacy keyed encoding or the current columnar one.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"zipmarket/internal/domain"
	"zipmarket/internal/ports"
)

const (
	datasetFile = "zip-data.json"
	liteFile    = "zip-data-lite.json"
	summaryFile = "last_updated.json"
	gzipSuffix  = ".gz"
	tempSuffix  = ".tmp"
)

// FileStore reads and writes the data directory's JSON artifacts.
type FileStore struct {
	dataDir  string
	compress bool
	logger   *slog.Logger
}

var _ ports.DatasetStore = (*FileStore)(nil)

// NewFileStore roots the store at dataDir. When compress is set, the full
// dataset is written gzipped.
func NewFileStore(dataDir string, compress bool, logger *slog.Logger) *FileStore {
	return &FileStore{dataDir: dataDir, compress: compress, logger: logger}
}

// DatasetPath is where the full dataset lands on the next write.
func (s *FileStore) DatasetPath() string {
	p := filepath.Join(s.dataDir, datasetFile)
	if s.compress {
		p += gzipSuffix
	}
	return p
}

// LitePath is where the lite projection lands.
func (s *FileStore) LitePath() string {
	return filepath.Join(s.dataDir, liteFile)
}

// columnarPayload is the on-disk columnar encoding: field names once, ZIP
// codes once, and positionally aligned value rows.
type columnarPayload struct {
	LastUpdatedUTC string   `json:"last_updated_utc"`
	Fields         []string `json:"f"`
	Zips           []string `json:"z"`
	Rows           [][]any  `json:"d"`
}

// ReadPrevious loads the previously persisted dataset for diffing. A
// missing, corrupt or unrecognizable file is "no previous data", never an
// error.
func (s *FileStore) ReadPrevious(_ context.Context) (*domain.Dataset, error) {
	raw, path, ok := s.readExisting()
	if !ok {
		return nil, nil
	}

	var payload struct {
		LastUpdatedUTC string                   `json:"last_updated_utc"`
		ZipCodes       map[string]domain.Record `json:"zip_codes"`
		Fields         []string                 `json:"f"`
		Zips           []string                 `json:"z"`
		Rows           [][]any                  `json:"d"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.warn("previous dataset unreadable, treating as absent", "path", path, "error", err)
		return nil, nil
	}

	ds := &domain.Dataset{LastUpdatedUTC: payload.LastUpdatedUTC}
	switch {
	case payload.ZipCodes != nil:
		ds.Records = payload.ZipCodes
	case len(payload.Fields) > 0 && payload.Zips != nil:
		ds.Fields = payload.Fields
		ds.Records = make(map[string]domain.Record, len(payload.Zips))
		for i, zip := range payload.Zips {
			if i >= len(payload.Rows) {
				break
			}
			row := payload.Rows[i]
			rec := make(domain.Record, len(payload.Fields))
			for j, field := range payload.Fields {
				if j < len(row) {
					rec[field] = row[j]
				} else {
					rec[field] = nil
				}
			}
			ds.Records[zip] = rec
		}
	default:
		s.warn("previous dataset in unknown encoding, treating as absent", "path", path)
		return nil, nil
	}

	return ds, nil
}

// readExisting finds the previous dataset under either filename variant
// and returns its decompressed bytes.
func (s *FileStore) readExisting() ([]byte, string, bool) {
	for _, path := range []string{
		filepath.Join(s.dataDir, datasetFile),
		filepath.Join(s.dataDir, datasetFile+gzipSuffix),
	} {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.HasSuffix(path, gzipSuffix) {
			raw, err = gunzip(raw)
			if err != nil {
				s.warn("previous dataset not valid gzip, treating as absent", "path", path, "error", err)
				continue
			}
		}
		return raw, path, true
	}
	return nil, "", false
}

// WriteDataset persists the dataset in columnar form, ZIPs sorted, via a
// temp file so a failed run never leaves a partial dataset behind.
func (s *FileStore) WriteDataset(_ context.Context, ds domain.Dataset) error {
	raw, err := encodeColumnar(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	path := s.DatasetPath()
	if s.compress {
		raw, err = gzipBytes(raw)
		if err != nil {
			return fmt.Errorf("compress dataset: %w", err)
		}
	}

	if err := writeAtomic(path, raw); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	s.info("dataset written", "path", path, "zips", len(ds.Records), "bytes", len(raw))
	return nil
}

// WriteLite persists a projected dataset next to the full one, always
// uncompressed (the front-end fetches it inline on first paint).
func (s *FileStore) WriteLite(_ context.Context, ds domain.Dataset) error {
	raw, err := encodeColumnar(ds)
	if err != nil {
		return fmt.Errorf("encode lite dataset: %w", err)
	}
	if err := writeAtomic(s.LitePath(), raw); err != nil {
		return fmt.Errorf("write lite dataset: %w", err)
	}
	s.info("lite dataset written", "path", s.LitePath(), "zips", len(ds.Records), "bytes", len(raw))
	return nil
}

// WriteSummary persists the change-summary artifact, human-readable.
func (s *FileStore) WriteSummary(_ context.Context, summary domain.RunSummary) error {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	path := filepath.Join(s.dataDir, summaryFile)
	if err := writeAtomic(path, raw); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func encodeColumnar(ds domain.Dataset) ([]byte, error) {
	zips := make([]string, 0, len(ds.Records))
	for zip := range ds.Records {
		zips = append(zips, zip)
	}
	sort.Strings(zips)

	rows := make([][]any, 0, len(zips))
	for _, zip := range zips {
		rec := ds.Records[zip]
		row := make([]any, len(ds.Fields))
		for j, field := range ds.Fields {
			row[j] = rec[field]
		}
		rows = append(rows, row)
	}

	return json.Marshal(columnarPayload{
		LastUpdatedUTC: ds.LastUpdatedUTC,
		Fields:         ds.Fields,
		Zips:           zips,
		Rows:           rows,
	})
}

func writeAtomic(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	temp := path + tempSuffix
	if err := os.WriteFile(temp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}

func gzipBytes(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(raw []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gz); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *FileStore) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *FileStore) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
