// Package config parses command line options and the YAML dataset
// configuration that drives map generation.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const defaultConfigFile = "datasets.yml"

// Boundary is one geographic boundary source. When both geojson and
// shapefile are set, the shapefile is generated from the GeoJSON on
// first use and preferred afterwards.
type Boundary struct {
	Name      string `yaml:"-"`
	GeoJSON   string `yaml:"geojson"`
	Shapefile string `yaml:"shapefile"`
	Key       string `yaml:"key"`
}

// Dataset describes one family of maps: a boundary, a statistics CSV,
// the join key, and which columns to render over which periods.
type Dataset struct {
	Name     string `yaml:"-"`
	Boundary string `yaml:"boundary"`
	Stats    string `yaml:"stats"`
	Key      string `yaml:"key"`

	// Column is a printf pattern with one %d, expanded per period
	// (e.g. "Theft_Rate_%d"). Columns lists explicit column names
	// instead. With neither set, all numeric columns are rendered.
	Column  string   `yaml:"column"`
	Periods []int    `yaml:"periods"`
	Columns []string `yaml:"columns"`

	// Baseline derives the rendered value as column/baseline*factor
	// (factor defaults to 100, a percentage).
	Baseline string  `yaml:"baseline"`
	Factor   float64 `yaml:"factor"`

	// SharedScale computes one min/max across all rendered columns so
	// the maps of a family are visually comparable. ScaleMin/ScaleMax
	// skip computation entirely and are used verbatim.
	SharedScale bool     `yaml:"shared_scale"`
	ScaleMin    *float64 `yaml:"scale_min"`
	ScaleMax    *float64 `yaml:"scale_max"`

	Colors string `yaml:"colors"`
	Format string `yaml:"format"`
	Title  string `yaml:"title"`
	Legend string `yaml:"legend"`
	Source string `yaml:"source"`
	Output string `yaml:"output"`
}

type Config struct {
	Boundaries map[string]*Boundary `yaml:"boundaries"`
	Datasets   map[string]*Dataset  `yaml:"datasets"`
}

// Load reads and validates the YAML configuration.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	conf := &Config{}
	if err := yaml.Unmarshal(b, conf); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	if err := conf.prepare(); err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return conf, nil
}

func (c *Config) prepare() error {
	for name, b := range c.Boundaries {
		b.Name = name
		if b.GeoJSON == "" && b.Shapefile == "" {
			return errors.Errorf("boundary %q: geojson or shapefile required", name)
		}
		if b.Key == "" {
			return errors.Errorf("boundary %q: missing key column", name)
		}
	}
	for name, d := range c.Datasets {
		d.Name = name
		if _, ok := c.Boundaries[d.Boundary]; !ok {
			return errors.Errorf("dataset %q: unknown boundary %q", name, d.Boundary)
		}
		if d.Stats == "" {
			return errors.Errorf("dataset %q: missing stats file", name)
		}
		if d.Key == "" {
			return errors.Errorf("dataset %q: missing key column", name)
		}
		if d.Column != "" && len(d.Periods) == 0 {
			return errors.Errorf("dataset %q: column pattern without periods", name)
		}
		if d.Output == "" {
			return errors.Errorf("dataset %q: missing output pattern", name)
		}
		if strings.Count(d.Output, "%s") != 1 {
			return errors.Errorf("dataset %q: output pattern needs exactly one %%s", name)
		}
		if d.Baseline != "" && d.Factor == 0 {
			d.Factor = 100
		}
	}
	return nil
}

// GenerateOptions are the options of the generate command.
type GenerateOptions struct {
	ConfigFile string
	Only       string
	Quiet      bool
}

// ConvertOptions are the options of the convert command.
type ConvertOptions struct {
	ConfigFile string
}

// ParseGenerate parses the generate command flags, exiting with usage
// on error.
func ParseGenerate(args []string) GenerateOptions {
	opts := GenerateOptions{}
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	flags.Usage = usage(flags)
	flags.StringVar(&opts.ConfigFile, "config", defaultConfigFile, "dataset configuration (yaml)")
	flags.StringVar(&opts.Only, "only", "", "generate a single dataset")
	flags.BoolVar(&opts.Quiet, "quiet", false, "quiet progress output")
	if err := flags.Parse(args); err != nil {
		os.Exit(2)
	}
	return opts
}

// ParseConvert parses the convert command flags.
func ParseConvert(args []string) ConvertOptions {
	opts := ConvertOptions{}
	flags := flag.NewFlagSet("convert", flag.ExitOnError)
	flags.Usage = usage(flags)
	flags.StringVar(&opts.ConfigFile, "config", defaultConfigFile, "dataset configuration (yaml)")
	if err := flags.Parse(args); err != nil {
		os.Exit(2)
	}
	return opts
}

func usage(flags *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [args]\n\n", os.Args[0], flags.Name())
		flags.PrintDefaults()
	}
}
