// Package mapping loads the ZCTA metadata reference table that decides
// which ZIP codes exist in the output at all.
package mapping

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"zipmarket/internal/ports"
)

const zipColumn = "zcta"

// CSVSource reads the reference table from a local CSV file, gzipped or
// plain (detected by magic bytes).
type CSVSource struct {
	path   string
	logger *slog.Logger
}

var _ ports.MappingSource = (*CSVSource)(nil)

// NewCSVSource points the loader at the metadata file.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

// Load reads the whole table into memory, keyed by zero-padded ZIP code.
// Each entry maps the remaining column names to their raw cell values.
func (s *CSVSource) Load(_ context.Context) (map[string]map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open zip mapping %s: %w", s.path, err)
	}
	defer f.Close()

	r, closeGz, err := maybeGzip(f)
	if err != nil {
		return nil, fmt.Errorf("read zip mapping %s: %w", s.path, err)
	}
	defer closeGz()

	table, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse zip mapping %s: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Info("zip mapping loaded", "path", s.path, "zips", len(table))
	}
	return table, nil
}

func parse(r io.Reader) (map[string]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	zipIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == zipColumn {
			zipIdx = i
			break
		}
	}
	if zipIdx < 0 {
		return nil, fmt.Errorf("missing %s column", zipColumn)
	}

	table := make(map[string]map[string]string)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		zip := padZip(cell(row, zipIdx))
		if zip == "" {
			continue
		}

		entry := make(map[string]string, len(header)-1)
		for i, name := range header {
			if i == zipIdx {
				continue
			}
			entry[strings.TrimSpace(name)] = cell(row, i)
		}
		table[zip] = entry
	}
	return table, nil
}

// maybeGzip returns a transparent reader over f, decompressing when the
// stream starts with the gzip magic bytes.
func maybeGzip(f io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	}
	return br, func() {}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
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
