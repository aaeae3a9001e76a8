// Package join merges boundary features with exploded statistics rows.
package join

import (
	"math"

	"choromap/boundary"
	"choromap/stats"
)

// Feature is one boundary feature with its joined statistic value.
// Value is NaN and Matched is false when no row matched the key.
type Feature struct {
	boundary.Feature
	Value   float64
	Matched bool
}

// Left joins every boundary feature against the exploded statistics
// table on the given key column. All boundary features are kept;
// unmatched ones carry an explicit no-data value. If a key occurs in
// multiple statistics rows the last row wins, defined by input order.
func Left(features []boundary.Feature, t *stats.Table, keyColumn, valueColumn string) ([]Feature, error) {
	keys, err := t.Strings(keyColumn)
	if err != nil {
		return nil, err
	}
	values, err := t.Floats(valueColumn)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]float64, len(keys))
	for i, key := range keys {
		if key == "" {
			continue
		}
		byKey[key] = values[i]
	}

	joined := make([]Feature, len(features))
	for i, f := range features {
		joined[i] = Feature{Feature: f, Value: math.NaN()}
		if v, ok := byKey[f.Key]; ok {
			joined[i].Value = v
			joined[i].Matched = !math.IsNaN(v)
		}
	}
	return joined, nil
}

// Matches returns the keys of all joined features that carry a
// non-missing value, for the per-run diagnostics output.
func Matches(joined []Feature) []string {
	var keys []string
	for i := range joined {
		if joined[i].Matched {
			keys = append(keys, joined[i].Key)
		}
	}
	return keys
}
