package generate

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"choromap/config"
)

const testBoundary = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"Code": "A1"},
			"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]}
		},
		{
			"type": "Feature",
			"properties": {"Code": "A2"},
			"geometry": {"type": "Polygon", "coordinates": [[[1, 0], [2, 0], [2, 1], [1, 1], [1, 0]]]}
		},
		{
			"type": "Feature",
			"properties": {"Code": "A3"},
			"geometry": {"type": "Polygon", "coordinates": [[[0, 1], [1, 1], [1, 2], [0, 2], [0, 1]]]}
		}
	]
}`

const testStats = `Code,Theft_2017,Users_2018,Population
"A1, A2",10,50,100
A3,20,30,0
`

const testDatasets = `
boundaries:
  squares:
    geojson: DIR/boundary.geojson
    key: Code

datasets:
  theft:
    boundary: squares
    stats: DIR/stats.csv
    key: Code
    column: Theft_%d
    periods: [2017]
    shared_scale: true
    colors: rdylbu_r
    format: "%.1f"
    title: Theft Rate (%s)
    output: DIR/maps/theft_%s.png
  adoption:
    boundary: squares
    stats: DIR/stats.csv
    key: Code
    column: Users_%d
    periods: [2018]
    baseline: Population
    colors: viridis
    format: "%.1f%%"
    legend: Adoption Rate (%) (%s)
    output: DIR/maps/adoption_%s.png
  summary:
    boundary: squares
    stats: DIR/stats.csv
    key: Code
    colors: viridis
    output: DIR/maps/summary_%s.png
`

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"boundary.geojson": testBoundary,
		"stats.csv":        testStats,
		"datasets.yml":     strings.ReplaceAll(testDatasets, "DIR", dir),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	conf, err := config.Load(filepath.Join(dir, "datasets.yml"))
	if err != nil {
		t.Fatal(err)
	}
	return conf, dir
}

func checkPNG(t *testing.T, filename string) {
	t.Helper()
	f, err := os.Open(filename)
	if err != nil {
		t.Fatal("output map missing:", err)
	}
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("%s: %v", filename, err)
	}
	if cfg.Width != 1500 || cfg.Height != 1000 {
		t.Fatalf("%s: unexpected size %dx%d", filename, cfg.Width, cfg.Height)
	}
}

func TestRun(t *testing.T) {
	conf, dir := testConfig(t)
	if err := Run(conf, config.GenerateOptions{Quiet: true}); err != nil {
		t.Fatal(err)
	}

	checkPNG(t, filepath.Join(dir, "maps", "theft_2017.png"))
	checkPNG(t, filepath.Join(dir, "maps", "adoption_2018.png"))

	// without column configuration all numeric columns are rendered
	for _, col := range []string{"Theft_2017", "Users_2018", "Population"} {
		checkPNG(t, filepath.Join(dir, "maps", "summary_"+col+".png"))
	}
}

func TestRunOnly(t *testing.T) {
	conf, dir := testConfig(t)
	if err := Run(conf, config.GenerateOptions{Only: "theft", Quiet: true}); err != nil {
		t.Fatal(err)
	}

	checkPNG(t, filepath.Join(dir, "maps", "theft_2017.png"))
	if _, err := os.Stat(filepath.Join(dir, "maps", "adoption_2018.png")); err == nil {
		t.Fatal("only the selected dataset should be generated")
	}
}

func TestRunUnknownDataset(t *testing.T) {
	conf, _ := testConfig(t)
	if err := Run(conf, config.GenerateOptions{Only: "nope", Quiet: true}); err == nil {
		t.Fatal("expected error for unknown dataset")
	}
}

func TestConvert(t *testing.T) {
	conf, dir := testConfig(t)
	b := conf.Boundaries["squares"]
	b.Shapefile = filepath.Join(dir, "boundary.shp")

	if err := Convert(conf); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(b.Shapefile); err != nil {
		t.Fatal("shapefile missing:", err)
	}

	// idempotent, the generate path reuses the shapefile afterwards
	if err := Convert(conf); err != nil {
		t.Fatal(err)
	}
	if err := Run(conf, config.GenerateOptions{Only: "theft", Quiet: true}); err != nil {
		t.Fatal(err)
	}
}
