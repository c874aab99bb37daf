package main

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/klauspost/compress/gzip"

	"zipmarket/internal/config"
	"zipmarket/internal/geo"
	"zipmarket/pkg/logger"
)

// cleangeo is a one-shot cleanup for the ZCTA-boundary GeoJSON asset: it
// strips feature properties down to the ZCTA code, converts null
// geometries to interior-point features and rewrites the gzipped file in
// place.
func main() {
	log := logger.New("cleangeo")
	cfg := config.Load()
	path := cfg.Paths.GeoJSONPath()

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("read %s: %v", path, err)
		os.Exit(1)
	}

	decompressed, err := gunzip(raw)
	if err != nil {
		log.Printf("decompress %s: %v", path, err)
		os.Exit(1)
	}

	var fc geo.FeatureCollection
	if err := json.Unmarshal(decompressed, &fc); err != nil {
		log.Printf("parse %s: %v", path, err)
		os.Exit(1)
	}

	stats := geo.Clean(&fc)
	log.Printf("features: %d before, %d after (%d null geometries converted to points, %d without zip, %d dropped)",
		stats.Total, stats.Kept, stats.ConvertedPoints, stats.MissingZip, stats.Dropped)

	out, err := json.Marshal(&fc)
	if err != nil {
		log.Printf("encode cleaned collection: %v", err)
		os.Exit(1)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write(out)
	if err == nil {
		err = gz.Close()
	}
	if err != nil {
		log.Printf("compress cleaned collection: %v", err)
		os.Exit(1)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, buf.Bytes(), 0o644); err != nil {
		log.Printf("write %s: %v", temp, err)
		os.Exit(1)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		log.Printf("replace %s: %v", path, err)
		os.Exit(1)
	}

	log.Printf("cleaned geojson written back to %s (%d bytes compressed)", path, buf.Len())
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
