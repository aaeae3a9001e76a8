// Package generate runs the configured map batches: load boundary,
// load statistics, normalize, explode, derive, join, scale, render,
// save. Each dataset produces one PNG per period column.
package generate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"choromap/boundary"
	"choromap/config"
	"choromap/join"
	"choromap/logging"
	"choromap/render"
	"choromap/stats"
)

var log = logging.NewLogger("Generate")

// Run generates all datasets of the configuration, or a single one
// with opts.Only. Datasets run in name order; a failure aborts the
// remaining batch but leaves already written maps in place.
func Run(conf *config.Config, opts config.GenerateOptions) error {
	if opts.Quiet {
		logging.SetQuiet(true)
	}

	names := datasetNames(conf)
	if opts.Only != "" {
		if _, ok := conf.Datasets[opts.Only]; !ok {
			return errors.Errorf("unknown dataset %q", opts.Only)
		}
		names = []string{opts.Only}
	}

	for _, name := range names {
		if err := Dataset(conf, conf.Datasets[name]); err != nil {
			return errors.Wrapf(err, "dataset %s", name)
		}
	}
	return nil
}

func datasetNames(conf *config.Config) []string {
	names := make([]string, 0, len(conf.Datasets))
	for name := range conf.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dataset renders all maps of one dataset.
func Dataset(conf *config.Config, d *config.Dataset) error {
	step := log.StartStep("Generating " + d.Name + " maps")
	defer log.StopStep(step)

	features, err := loadBoundary(conf.Boundaries[d.Boundary])
	if err != nil {
		return err
	}

	// one load per dataset, the scale and the join share it
	table, err := stats.Load(d.Stats)
	if err != nil {
		return err
	}

	columns, labels, err := resolveColumns(d, table)
	if err != nil {
		return err
	}

	renderColumns := columns
	if d.Baseline != "" {
		renderColumns = make([]string, len(columns))
		for i, col := range columns {
			name := col + "_Rate"
			if err := table.Derive(name, col, d.Baseline, d.Factor); err != nil {
				return err
			}
			renderColumns[i] = name
		}
	}

	shared, err := sharedScale(d, table, renderColumns)
	if err != nil {
		return err
	}

	exploded, err := table.Explode(d.Key)
	if err != nil {
		return err
	}

	for i, col := range renderColumns {
		label := labels[i]

		scale := shared
		if scale == nil {
			min, max, err := table.MinMax(col)
			if err != nil {
				return errors.Wrapf(err, "scale for %s", col)
			}
			scale = &render.Scale{Min: min, Max: max}
		}

		joined, err := join.Left(features, exploded, d.Key, col)
		if err != nil {
			return err
		}
		matched := join.Matches(joined)
		log.Printf("%s: %d of %d features matched", label, len(matched), len(joined))
		log.Progress("matched keys: %s", strings.Join(matched, ", "))

		img, err := render.Choropleth(joined, *scale, render.Options{
			Title:  expand(d.Title, label),
			Legend: expand(d.Legend, label),
			Source: expand(d.Source, label),
			Format: d.Format,
			Colors: d.Colors,
		})
		if err != nil {
			return errors.Wrapf(err, "rendering %s", label)
		}

		out := expand(d.Output, label)
		if err := render.SavePNG(img, out); err != nil {
			return err
		}
		log.Printf("saved %s", out)
	}
	return nil
}

// sharedScale returns the scale shared by all maps of the dataset:
// the explicitly configured min/max verbatim, or the true min/max
// across the union of all rendered columns. Nil when every map
// computes its own scale.
func sharedScale(d *config.Dataset, table *stats.Table, columns []string) (*render.Scale, error) {
	if d.ScaleMin != nil && d.ScaleMax != nil {
		return &render.Scale{Min: *d.ScaleMin, Max: *d.ScaleMax}, nil
	}
	if !d.SharedScale {
		return nil, nil
	}
	min, max, err := table.MinMax(columns...)
	if err != nil {
		return nil, errors.Wrap(err, "computing shared scale")
	}
	return &render.Scale{Min: min, Max: max}, nil
}

// resolveColumns expands the dataset configuration into the column
// names to render and their period labels.
func resolveColumns(d *config.Dataset, table *stats.Table) (columns, labels []string, err error) {
	switch {
	case d.Column != "":
		for _, period := range d.Periods {
			columns = append(columns, fmt.Sprintf(d.Column, period))
			labels = append(labels, strconv.Itoa(period))
		}
	case len(d.Columns) > 0:
		columns = d.Columns
		labels = d.Columns
	default:
		columns = numericColumns(d, table)
		labels = columns
		log.Printf("found %d numeric columns to visualize: %s",
			len(columns), strings.Join(columns, ", "))
	}
	if len(columns) == 0 {
		return nil, nil, errors.Errorf("dataset %s: no columns to render", d.Name)
	}
	return columns, labels, nil
}

func numericColumns(d *config.Dataset, table *stats.Table) []string {
	var columns []string
	for _, col := range table.NumericColumns() {
		if col == d.Key || col == d.Baseline {
			continue
		}
		columns = append(columns, col)
	}
	return columns
}

func loadBoundary(b *config.Boundary) ([]boundary.Feature, error) {
	if b.Shapefile == "" {
		return boundary.LoadGeoJSON(b.GeoJSON, b.Key)
	}
	if b.GeoJSON != "" {
		converted, err := boundary.EnsureShapefile(b.GeoJSON, b.Shapefile)
		if err != nil {
			return nil, err
		}
		if converted {
			log.Printf("%s not found, converted from %s", b.Shapefile, b.GeoJSON)
		} else {
			log.Printf("%s already exists", b.Shapefile)
		}
	}
	return boundary.LoadShapefile(b.Shapefile, b.Key)
}

// Convert runs the GeoJSON to shapefile conversion for all boundaries
// that configure both formats.
func Convert(conf *config.Config) error {
	names := make([]string, 0, len(conf.Boundaries))
	for name := range conf.Boundaries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := conf.Boundaries[name]
		if b.GeoJSON == "" || b.Shapefile == "" {
			continue
		}
		converted, err := boundary.EnsureShapefile(b.GeoJSON, b.Shapefile)
		if err != nil {
			return errors.Wrapf(err, "boundary %s", name)
		}
		if converted {
			log.Printf("%s: converted %s to %s", name, b.GeoJSON, b.Shapefile)
		} else {
			log.Printf("%s: %s already exists", name, b.Shapefile)
		}
	}
	return nil
}

// expand fills the period label into an annotation pattern.
// Annotations may contain other percent signs ("Rate (%)"), so this
// is a plain replacement, not a printf.
func expand(pattern, label string) string {
	return strings.ReplaceAll(pattern, "%s", label)
}
