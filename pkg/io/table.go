package io

import (
	"strconv"

	"github.com/pkg/errors"
)

var ErrMissingColumn = errors.New("column not found")

// missingTokens are the raw cell values read as null.
var missingTokens = NewSet("", "NA", "N/A", "NaN", "nan", "null", "NULL")

type void struct{}

var Void = void{}

type Set map[string]void

func NewSet(values ...string) Set {
	set := Set{}
	for _, val := range values {
		set[val] = Void
	}
	return set
}

func (s Set) Contains(value string) bool {
	_, ok := s[value]
	return ok
}

// IsMissing reports whether a raw cell holds a null value.
func IsMissing(cell string) bool {
	return missingTokens.Contains(cell)
}

// Table is a row oriented dataset of raw string cells sharing one header.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

func NewTable(columns []string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		t.index[col] = i
	}
}

// Size returns the number of rows.
func (t *Table) Size() int {
	return len(t.Rows)
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]string, error) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return nil, errors.Wrapf(ErrMissingColumn, "%s", name)
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values, nil
}

// Line is the CSV line of data row r, counting the header as line 1.
func Line(r int) int {
	return r + 2
}

// Float64Column parses the named column. Missing cells are reported by the
// returned mask instead of a value.
func (t *Table) Float64Column(name string) ([]float64, []bool, error) {
	raw, err := t.Column(name)
	if err != nil {
		return nil, nil, err
	}
	values := make([]float64, len(raw))
	missing := make([]bool, len(raw))
	for r, cell := range raw {
		if IsMissing(cell) {
			missing[r] = true
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "error parsing %s at line %d", name, Line(r))
		}
		values[r] = v
	}
	return values, missing, nil
}

func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return errors.Errorf("expected %d fields, got %d", len(t.Columns), len(row))
	}
	t.Rows = append(t.Rows, append([]string(nil), row...))
	return nil
}

// Subset returns a table holding the rows at indices, in the given order.
func (t *Table) Subset(indices []int) *Table {
	subset := NewTable(t.Columns)
	subset.Rows = make([][]string, len(indices))
	for i, idx := range indices {
		subset.Rows[i] = t.Rows[idx]
	}
	return subset
}
