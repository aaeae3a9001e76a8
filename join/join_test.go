package join

import (
	"math"
	"reflect"
	"testing"

	"choromap/boundary"
	"choromap/geom"
	"choromap/stats"
)

func square(x, y float64) geom.Geometry {
	return geom.Geometry{{{
		{X: x, Y: y}, {X: x + 1, Y: y}, {X: x + 1, Y: y + 1}, {X: x, Y: y + 1}, {X: x, Y: y},
	}}}
}

func testFeatures(keys ...string) []boundary.Feature {
	features := make([]boundary.Feature, len(keys))
	for i, key := range keys {
		features[i] = boundary.Feature{Key: key, Geom: square(float64(i), 0)}
	}
	return features
}

func explodedTable(t *testing.T, rows [][]string) *stats.Table {
	t.Helper()
	table := stats.NewTable([]string{"Code", "Value"}, rows)
	exploded, err := table.Explode("Code")
	if err != nil {
		t.Fatal(err)
	}
	return exploded
}

func TestLeftJoinExpandedCodes(t *testing.T) {
	features := testFeatures("A1", "A2", "A3")
	exploded := explodedTable(t, [][]string{
		{"A1,A2", "10"},
		{"A3", "20"},
	})

	joined, err := Left(features, exploded, "Code", "Value")
	if err != nil {
		t.Fatal(err)
	}
	if len(joined) != len(features) {
		t.Fatal("left join must keep all boundary features, got", len(joined))
	}

	values := map[string]float64{}
	for _, f := range joined {
		if !f.Matched {
			t.Fatalf("feature %s unmatched", f.Key)
		}
		values[f.Key] = f.Value
	}
	want := map[string]float64{"A1": 10, "A2": 10, "A3": 20}
	if !reflect.DeepEqual(values, want) {
		t.Fatal("unexpected values:", values)
	}
}

func TestLeftJoinKeepsUnmatched(t *testing.T) {
	features := testFeatures("A1", "ZZ")
	exploded := explodedTable(t, [][]string{{"A1", "10"}})

	joined, err := Left(features, exploded, "Code", "Value")
	if err != nil {
		t.Fatal(err)
	}
	if len(joined) != 2 {
		t.Fatal("expected 2 joined features, got", len(joined))
	}
	if !joined[0].Matched || joined[0].Value != 10 {
		t.Fatal("A1 should match with 10")
	}
	if joined[1].Matched || !math.IsNaN(joined[1].Value) {
		t.Fatal("ZZ must carry an explicit no-data value, got", joined[1].Value)
	}
}

func TestLeftJoinDuplicateKeyLastWins(t *testing.T) {
	features := testFeatures("A1")
	exploded := explodedTable(t, [][]string{
		{"A1", "10"},
		{"A1", "30"},
	})

	joined, err := Left(features, exploded, "Code", "Value")
	if err != nil {
		t.Fatal(err)
	}
	if joined[0].Value != 30 {
		t.Fatal("duplicate keys resolve to the last row, got", joined[0].Value)
	}
}

func TestLeftJoinUndefinedValue(t *testing.T) {
	features := testFeatures("A1")
	exploded := explodedTable(t, [][]string{{"A1", ""}})

	joined, err := Left(features, exploded, "Code", "Value")
	if err != nil {
		t.Fatal(err)
	}
	// the key matched but the value is undefined: no data on the map
	if joined[0].Matched || !math.IsNaN(joined[0].Value) {
		t.Fatal("undefined value must surface as no data")
	}
}

func TestLeftJoinMissingColumn(t *testing.T) {
	features := testFeatures("A1")
	exploded := explodedTable(t, [][]string{{"A1", "10"}})

	if _, err := Left(features, exploded, "Code", "Nope"); err == nil {
		t.Fatal("expected error for missing value column")
	}
}

func TestMatches(t *testing.T) {
	features := testFeatures("A1", "A2", "A3")
	exploded := explodedTable(t, [][]string{
		{"A1", "10"},
		{"A3", ""},
	})

	joined, err := Left(features, exploded, "Code", "Value")
	if err != nil {
		t.Fatal(err)
	}
	if got := Matches(joined); !reflect.DeepEqual(got, []string{"A1"}) {
		t.Fatal("unexpected matches:", got)
	}
}
