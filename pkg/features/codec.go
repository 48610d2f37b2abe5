package features

import (
	"math"

	"github.com/pkg/errors"

	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrCodeOutOfRange  = errors.New("category code out of range")
)

// Codec holds one CategoryMap per categorical column, built from training
// data only.
type Codec struct {
	Maps map[string]model.CategoryMap
}

func FitCodec(t *io.Table, columns []string) (*Codec, error) {
	c := &Codec{Maps: make(map[string]model.CategoryMap, len(columns))}
	for _, col := range columns {
		values, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		m := model.NewCategoryMap(col, values)
		if m.Size() == 0 {
			return nil, errors.Errorf("categorical column %s has no values", col)
		}
		c.Maps[col] = m
	}
	return c, nil
}

// Encode maps labels to their codes. Missing cells become NaN so that the
// imputer fills them; a label absent from the map is an error.
func Encode(values []string, m model.CategoryMap) ([]float64, error) {
	codes := make([]float64, len(values))
	for i, v := range values {
		if io.IsMissing(v) {
			codes[i] = math.NaN()
			continue
		}
		code, ok := m.Code(v)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownCategory, "column %s line %d: %q", m.Column, io.Line(i), v)
		}
		codes[i] = float64(code)
	}
	return codes, nil
}

// Decode maps codes back to their labels.
func Decode(codes []int, m model.CategoryMap) ([]string, error) {
	labels := make([]string, len(codes))
	for i, code := range codes {
		name, ok := m.Name(code)
		if !ok {
			return nil, errors.Wrapf(ErrCodeOutOfRange, "column %s line %d: code %d not in [0, %d)", m.Column, io.Line(i), code, m.Size())
		}
		labels[i] = name
	}
	return labels, nil
}

// restoreCodes turns imputed code values back into integer codes. Columns
// that had missing training values may hold negative or fractional estimates:
// those are made absolute and rounded half to even before the cast. Other
// columns are cast directly.
func restoreCodes(values []float64, hadMissing bool) []int {
	codes := make([]int, len(values))
	for i, v := range values {
		if hadMissing {
			v = math.RoundToEven(math.Abs(v))
		}
		codes[i] = int(v)
	}
	return codes
}
