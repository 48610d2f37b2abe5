package features

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

// Frame holds decoded features: numeric columns as values and categorical
// columns as labels, all of the same length.
type Frame struct {
	Rows        int
	Numeric     map[string][]float64
	Categorical map[string][]string
}

func NewFrame(rows int) *Frame {
	return &Frame{
		Rows:        rows,
		Numeric:     map[string][]float64{},
		Categorical: map[string][]string{},
	}
}

func (f *Frame) numeric(col string) ([]float64, error) {
	values, ok := f.Numeric[col]
	if !ok {
		return nil, errors.Wrapf(io.ErrMissingColumn, "numeric %s", col)
	}
	return values, nil
}

func (f *Frame) categorical(col string) ([]string, error) {
	values, ok := f.Categorical[col]
	if !ok {
		return nil, errors.Wrapf(io.ErrMissingColumn, "categorical %s", col)
	}
	return values, nil
}

var canonicalReplacer = strings.NewReplacer(" ", "_", "/", "_")

// CanonicalName turns a category label into a column name: lowercase, with
// spaces and slashes replaced by underscores.
func CanonicalName(category string) string {
	return canonicalReplacer.Replace(strings.ToLower(category))
}

// CategoryEncoder holds the categories of one column. For nominal columns
// they are the sorted training categories; for ordinal columns the configured
// rank order.
type CategoryEncoder struct {
	Column     string
	Categories []string
}

func (e CategoryEncoder) index(value string) (int, bool) {
	for i, c := range e.Categories {
		if c == value {
			return i, true
		}
	}
	return 0, false
}

// FeatureTransformer produces the model-ready layout: numeric columns passed
// through, one indicator column per nominal training category, and one rank
// column per ordinal feature.
type FeatureTransformer struct {
	Numeric []string
	Nominal []CategoryEncoder
	Ordinal []CategoryEncoder
	Fitted  bool
}

func NewFeatureTransformer(schema *model.Schema) *FeatureTransformer {
	ft := &FeatureTransformer{Numeric: append([]string(nil), schema.Numeric...)}
	for _, col := range schema.Nominal {
		ft.Nominal = append(ft.Nominal, CategoryEncoder{Column: col})
	}
	for _, f := range schema.Ordinal {
		ft.Ordinal = append(ft.Ordinal, CategoryEncoder{Column: f.Name, Categories: append([]string(nil), f.Categories...)})
	}
	return ft
}

func (ft *FeatureTransformer) Fit(f *Frame) error {
	if ft.Fitted {
		return errors.New("feature transformer is already fitted")
	}
	for _, col := range ft.Numeric {
		if _, err := f.numeric(col); err != nil {
			return err
		}
	}
	for i := range ft.Nominal {
		values, err := f.categorical(ft.Nominal[i].Column)
		if err != nil {
			return err
		}
		distinct := io.NewSet(values...)
		categories := make([]string, 0, len(distinct))
		for c := range distinct {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		ft.Nominal[i].Categories = categories
	}
	for _, enc := range ft.Ordinal {
		values, err := f.categorical(enc.Column)
		if err != nil {
			return err
		}
		for r, v := range values {
			if _, ok := enc.index(v); !ok {
				return errors.Wrapf(ErrUnknownCategory, "ordinal column %s line %d: %q is not in the configured order", enc.Column, io.Line(r), v)
			}
		}
	}
	ft.Fitted = true
	return nil
}

// Layout returns the output column names in transform order.
func (ft *FeatureTransformer) Layout() []string {
	layout := append([]string(nil), ft.Numeric...)
	for _, enc := range ft.Nominal {
		for _, c := range enc.Categories {
			layout = append(layout, CanonicalName(c))
		}
	}
	for _, enc := range ft.Ordinal {
		layout = append(layout, enc.Column)
	}
	return layout
}

func (ft *FeatureTransformer) width() int {
	width := len(ft.Numeric) + len(ft.Ordinal)
	for _, enc := range ft.Nominal {
		width += len(enc.Categories)
	}
	return width
}

// Transform encodes f with the fitted encoders. Any category not seen at fit
// time is an error.
func (ft *FeatureTransformer) Transform(f *Frame) (*mat.Dense, error) {
	if !ft.Fitted {
		return nil, errors.Wrap(ErrNotFitted, "feature transformer")
	}
	if f.Rows == 0 {
		return nil, errors.New("cannot transform an empty frame")
	}
	result := mat.NewDense(f.Rows, ft.width(), nil)

	offset := 0
	for _, col := range ft.Numeric {
		values, err := f.numeric(col)
		if err != nil {
			return nil, err
		}
		result.SetCol(offset, values)
		offset++
	}

	for _, enc := range ft.Nominal {
		values, err := f.categorical(enc.Column)
		if err != nil {
			return nil, err
		}
		for r, v := range values {
			i, ok := enc.index(v)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownCategory, "nominal column %s line %d: %q", enc.Column, io.Line(r), v)
			}
			result.Set(r, offset+i, 1)
		}
		offset += len(enc.Categories)
	}

	for _, enc := range ft.Ordinal {
		values, err := f.categorical(enc.Column)
		if err != nil {
			return nil, err
		}
		for r, v := range values {
			rank, ok := enc.index(v)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownCategory, "ordinal column %s line %d: %q", enc.Column, io.Line(r), v)
			}
			result.Set(r, offset, float64(rank))
		}
		offset++
	}
	return result, nil
}
