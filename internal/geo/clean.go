// Package geo cleans the ZCTA-boundary GeoJSON asset shipped to the
// front-end: properties are stripped down to the ZCTA code and features
// without a polygon get a Point geometry built from the Census interior
// point, so the map never sees a null geometry.
package geo

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Property names from the Census ZCTA shapefile export.
const (
	zctaProperty = "ZCTA5CE20"
	latProperty  = "INTPTLAT20"
	lngProperty  = "INTPTLON20"
)

// FeatureCollection is the subset of GeoJSON this cleaner touches.
// Geometries pass through untouched as raw JSON.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type pointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Stats reports what the cleanup did.
type Stats struct {
	Total           int
	Kept            int
	ConvertedPoints int
	MissingZip      int
	Dropped         int
}

// Clean rewrites the collection in place: features without a ZCTA code are
// dropped, properties are reduced to the code alone, and null geometries
// become interior-point Points (or the feature is dropped when no interior
// point is available).
func Clean(fc *FeatureCollection) Stats {
	stats := Stats{Total: len(fc.Features)}
	cleaned := make([]Feature, 0, len(fc.Features))

	for _, feature := range fc.Features {
		zip, ok := feature.Properties[zctaProperty].(string)
		if !ok || zip == "" {
			stats.MissingZip++
			continue
		}

		out := Feature{
			Type:       "Feature",
			Geometry:   feature.Geometry,
			Properties: map[string]any{zctaProperty: zip},
		}

		if isNullGeometry(feature.Geometry) {
			point, ok := interiorPoint(feature.Properties)
			if !ok {
				stats.Dropped++
				continue
			}
			raw, err := json.Marshal(point)
			if err != nil {
				stats.Dropped++
				continue
			}
			out.Geometry = raw
			stats.ConvertedPoints++
		}

		cleaned = append(cleaned, out)
	}

	fc.Type = "FeatureCollection"
	fc.Features = cleaned
	stats.Kept = len(cleaned)
	return stats
}

func isNullGeometry(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func interiorPoint(properties map[string]any) (pointGeometry, bool) {
	lat, okLat := parseCoordinate(properties[latProperty])
	lng, okLng := parseCoordinate(properties[lngProperty])
	if !okLat || !okLng {
		return pointGeometry{}, false
	}
	return pointGeometry{
		Type:        "Point",
		Coordinates: [2]float64{round5(lng), round5(lat)},
	}, true
}

// parseCoordinate handles the shapefile's signed-string coordinates
// (e.g. "+29.51234" / "-098.41234").
func parseCoordinate(v any) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func round5(f float64) float64 {
	return math.Round(f*1e5) / 1e5
}
