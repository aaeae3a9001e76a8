// Package geojson reads polygon features from GeoJSON documents.
//
// Only the geometry types that appear in administrative boundary
// files are supported: Polygon and MultiPolygon. Feature properties
// are kept so that callers can extract the join key column.
package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"choromap/geom"
)

type object struct {
	Type        string                 `json:"type"`
	Features    []object               `json:"features"`
	Geometry    *object                `json:"geometry"`
	Coordinates []interface{}          `json:"coordinates"`
	Properties  map[string]interface{} `json:"properties"`
}

// Feature is a single boundary feature with its geometry and the
// raw GeoJSON properties.
type Feature struct {
	Properties map[string]interface{}
	Geometry   geom.Geometry
}

// Property returns the named property as a string. Numeric JSON
// values are formatted without an exponent.
func (f *Feature) Property(name string) (string, bool) {
	v, ok := f.Properties[name]
	if !ok || v == nil {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// ReadFeatures parses a GeoJSON document (FeatureCollection, Feature,
// or a bare Polygon/MultiPolygon) into a list of features.
func ReadFeatures(r io.Reader) ([]Feature, error) {
	obj := &object{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(obj); err != nil {
		return nil, errors.Wrap(err, "decoding geojson")
	}
	return constructFeatures(obj)
}

func constructFeatures(obj *object) ([]Feature, error) {
	switch obj.Type {
	case "Polygon":
		poly, err := newPolygon(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Feature{{Geometry: geom.Geometry{poly}}}, nil
	case "MultiPolygon":
		g, err := newMultiPolygon(obj.Coordinates)
		if err != nil {
			return nil, err
		}
		return []Feature{{Geometry: g}}, nil
	case "Feature":
		if obj.Geometry == nil {
			return nil, errors.New("feature without geometry")
		}
		features, err := constructFeatures(obj.Geometry)
		if err != nil {
			return nil, err
		}
		for i := range features {
			features[i].Properties = obj.Properties
		}
		return features, nil
	case "FeatureCollection":
		features := make([]Feature, 0, len(obj.Features))
		for i := range obj.Features {
			fs, err := constructFeatures(&obj.Features[i])
			if err != nil {
				return nil, err
			}
			features = append(features, fs...)
		}
		return features, nil
	default:
		return nil, errors.Errorf("unsupported geojson type %q", obj.Type)
	}
}

func newPoint(coords []interface{}) (geom.Point, error) {
	p := geom.Point{}
	if len(coords) < 2 {
		return p, errors.New("coordinate pair too short")
	}
	var ok bool
	if p.X, ok = coords[0].(float64); !ok {
		return p, errors.New("invalid longitude")
	}
	if p.Y, ok = coords[1].(float64); !ok {
		return p, errors.New("invalid latitude")
	}
	return p, nil
}

func newRing(coords []interface{}) (geom.Ring, error) {
	ring := make(geom.Ring, 0, len(coords))
	for _, part := range coords {
		coord, ok := part.([]interface{})
		if !ok {
			return nil, errors.New("ring coordinate not a list")
		}
		p, err := newPoint(coord)
		if err != nil {
			return nil, err
		}
		ring = append(ring, p)
	}
	return ring, nil
}

func newPolygon(coords []interface{}) (geom.Polygon, error) {
	poly := make(geom.Polygon, 0, len(coords))
	for _, part := range coords {
		ringCoords, ok := part.([]interface{})
		if !ok {
			return nil, errors.New("polygon ring not a list")
		}
		ring, err := newRing(ringCoords)
		if err != nil {
			return nil, err
		}
		poly = append(poly, ring)
	}
	if len(poly) == 0 {
		return nil, errors.New("polygon without rings")
	}
	return poly, nil
}

func newMultiPolygon(coords []interface{}) (geom.Geometry, error) {
	g := make(geom.Geometry, 0, len(coords))
	for _, part := range coords {
		polyCoords, ok := part.([]interface{})
		if !ok {
			return nil, errors.New("multipolygon polygon not a list")
		}
		poly, err := newPolygon(polyCoords)
		if err != nil {
			return nil, err
		}
		g = append(g, poly)
	}
	return g, nil
}
