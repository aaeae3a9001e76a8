// Package stats loads and transforms the tabular statistics that get
// joined against boundary features: CSV loading, region code
// normalization, row expansion for multi-code records, derived rate
// columns, and min/max scale computation.
package stats

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Table is a row-oriented statistics table. Cells are kept as strings,
// numeric access parses on demand. An empty cell reads as NaN.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// Load reads a CSV file with a header row.
func Load(filename string) (*Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening statistics file")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("%s: empty file", filename)
	}
	return NewTable(records[0], records[1:]), nil
}

// NewTable builds a table from a header and rows.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.index = make(map[string]int, len(columns))
	for i, name := range columns {
		t.index[name] = i
	}
	return t
}

func (t *Table) columnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, errors.Errorf("no column %q in table", name)
	}
	return i, nil
}

// Floats returns the named column parsed as float64. Empty and "NA"
// cells become NaN; anything else that does not parse is an error.
func (t *Table) Floats(name string) ([]float64, error) {
	col, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := parseCell(row[col])
		if err != nil {
			return nil, errors.Wrapf(err, "column %q row %d", name, i+1)
		}
		values[i] = v
	}
	return values, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "NA" || cell == "NaN" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// NumericColumns returns the names of all columns where every
// non-empty cell parses as a number and at least one cell is numeric.
// Used to autodiscover the summary statistics columns.
func (t *Table) NumericColumns() []string {
	var numeric []string
	for col, name := range t.Columns {
		any := false
		ok := true
		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[col])
			if cell == "" || cell == "NA" || cell == "NaN" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			any = true
		}
		if ok && any {
			numeric = append(numeric, name)
		}
	}
	return numeric
}

// Derive appends a column name = numerator/denominator * factor,
// computed row-local before any expansion. Rows with a zero or
// missing denominator get an undefined value (empty cell, NaN when
// read back), they are not an error.
func (t *Table) Derive(name, numerator, denominator string, factor float64) error {
	num, err := t.Floats(numerator)
	if err != nil {
		return err
	}
	den, err := t.Floats(denominator)
	if err != nil {
		return err
	}
	col := make([]string, len(t.Rows))
	for i := range t.Rows {
		if den[i] == 0 || math.IsNaN(den[i]) || math.IsNaN(num[i]) {
			col[i] = ""
			continue
		}
		col[i] = strconv.FormatFloat(num[i]/den[i]*factor, 'g', -1, 64)
	}
	t.appendColumn(name, col)
	return nil
}

func (t *Table) appendColumn(name string, values []string) {
	t.index[name] = len(t.Columns)
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		// rows may be shared with an input slice, copy on write
		row := make([]string, len(t.Rows[i])+1)
		copy(row, t.Rows[i])
		row[len(row)-1] = values[i]
		t.Rows[i] = row
	}
}

// NormalizeCodes splits a raw region code field on commas and trims
// each token. Empty tokens are dropped. A field without commas yields
// a single trimmed token.
func NormalizeCodes(raw string) []string {
	var codes []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		codes = append(codes, tok)
	}
	return codes
}

// Explode expands every row whose key column holds N region codes
// into N rows with a single code each, all other fields duplicated
// unchanged. The expanded code is trimmed again, the source data
// contains nested whitespace variants.
func (t *Table) Explode(key string) (*Table, error) {
	col, err := t.columnIndex(key)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, row := range t.Rows {
		codes := NormalizeCodes(row[col])
		if len(codes) == 0 {
			codes = []string{""}
		}
		for _, code := range codes {
			expanded := make([]string, len(row))
			copy(expanded, row)
			expanded[col] = strings.TrimSpace(code)
			rows = append(rows, expanded)
		}
	}
	return NewTable(t.Columns, rows), nil
}

// Strings returns the named column with surrounding whitespace removed.
func (t *Table) Strings(name string) ([]string, error) {
	col, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = strings.TrimSpace(row[col])
	}
	return values, nil
}

// MinMax computes the global minimum and maximum across the union of
// all values in the given columns. Undefined values are skipped. The
// scale is computed from the raw table, independent of any join.
func (t *Table) MinMax(columns ...string) (min, max float64, err error) {
	if len(columns) == 0 {
		return 0, 0, errors.New("no columns for min/max")
	}
	min = math.Inf(1)
	max = math.Inf(-1)
	found := false
	for _, name := range columns {
		values, err := t.Floats(name)
		if err != nil {
			return 0, 0, err
		}
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			found = true
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if !found {
		return 0, 0, errors.Errorf("no values in columns %v", columns)
	}
	return min, max, nil
}
