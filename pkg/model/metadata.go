package model

import (
	"sort"

	"github.com/pkg/errors"

	"scorecast/pkg/io"
)

var ErrInvalidSchema = errors.New("invalid schema")

// CategoryMap implements a bidirectional mapping between a category label and
// a dense code in [0, Size()).
type CategoryMap struct {
	Column      string
	NameToIndex map[string]int
	IndexToName []string
}

// NewCategoryMap assigns codes to the distinct non-missing values in
// lexicographic order.
func NewCategoryMap(column string, values []string) CategoryMap {
	distinct := io.NewSet()
	for _, v := range values {
		if !io.IsMissing(v) {
			distinct[v] = io.Void
		}
	}
	names := make([]string, 0, len(distinct))
	for v := range distinct {
		names = append(names, v)
	}
	sort.Strings(names)

	m := CategoryMap{
		Column:      column,
		NameToIndex: make(map[string]int, len(names)),
		IndexToName: names,
	}
	for i, name := range names {
		m.NameToIndex[name] = i
	}
	return m
}

func (m CategoryMap) Size() int {
	return len(m.IndexToName)
}

func (m CategoryMap) Code(name string) (int, bool) {
	index, ok := m.NameToIndex[name]
	return index, ok
}

func (m CategoryMap) Name(code int) (string, bool) {
	if code < 0 || code >= len(m.IndexToName) {
		return "", false
	}
	return m.IndexToName[code], true
}

// OrdinalFeature is a categorical column with an externally configured rank
// order, lowest rank first.
type OrdinalFeature struct {
	Name       string
	Categories []string
}

// Schema declares the role of every column used by the pipeline.
type Schema struct {
	Target  string
	Numeric []string
	Nominal []string
	Ordinal []OrdinalFeature
}

func NewSchema(p *io.Parameters) (*Schema, error) {
	s := &Schema{
		Target:  p.Target,
		Numeric: append([]string(nil), p.NumericFeatures...),
		Nominal: append([]string(nil), p.NominalFeatures...),
	}
	for _, name := range p.Ordinal.Features {
		categories, ok := p.Ordinal.Categories[name]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidSchema, "no category order for ordinal feature %s", name)
		}
		s.Ordinal = append(s.Ordinal, OrdinalFeature{Name: name, Categories: append([]string(nil), categories...)})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) Validate() error {
	if s.Target == "" {
		return errors.Wrap(ErrInvalidSchema, "target column required")
	}
	if len(s.Features()) == 0 {
		return errors.Wrap(ErrInvalidSchema, "no feature columns")
	}
	seen := io.NewSet(s.Target)
	for _, col := range s.Features() {
		if seen.Contains(col) {
			return errors.Wrapf(ErrInvalidSchema, "column %s declared twice", col)
		}
		seen[col] = io.Void
	}
	for _, f := range s.Ordinal {
		if len(f.Categories) == 0 {
			return errors.Wrapf(ErrInvalidSchema, "empty category order for ordinal feature %s", f.Name)
		}
		categories := io.NewSet()
		for _, c := range f.Categories {
			if categories.Contains(c) {
				return errors.Wrapf(ErrInvalidSchema, "category %q listed twice for ordinal feature %s", c, f.Name)
			}
			categories[c] = io.Void
		}
	}
	return nil
}

func (s *Schema) OrdinalNames() []string {
	names := make([]string, len(s.Ordinal))
	for i, f := range s.Ordinal {
		names[i] = f.Name
	}
	return names
}

// Categorical returns the nominal columns followed by the ordinal columns.
func (s *Schema) Categorical() []string {
	return append(append([]string(nil), s.Nominal...), s.OrdinalNames()...)
}

// Features returns numeric, nominal and ordinal columns, in that order.
func (s *Schema) Features() []string {
	return append(append([]string(nil), s.Numeric...), s.Categorical()...)
}

// CheckColumns verifies that the table carries every feature column, and the
// target when withTarget is set.
func (s *Schema) CheckColumns(t *io.Table, withTarget bool) error {
	required := s.Features()
	if withTarget {
		required = append(required, s.Target)
	}
	for _, col := range required {
		if _, ok := t.ColumnIndex(col); !ok {
			return errors.Wrapf(io.ErrMissingColumn, "%s", col)
		}
	}
	return nil
}
