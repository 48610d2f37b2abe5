package model

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/io"
)

func TestNewCategoryMap(t *testing.T) {
	m := NewCategoryMap("race_ethnicity", []string{"group C", "group A", "", "group C", "NA", "group B"})
	require.Equal(t, 3, m.Size())
	require.Equal(t, []string{"group A", "group B", "group C"}, m.IndexToName)

	code, ok := m.Code("group B")
	require.True(t, ok)
	require.Equal(t, 1, code)

	_, ok = m.Code("group E")
	require.False(t, ok)

	name, ok := m.Name(2)
	require.True(t, ok)
	require.Equal(t, "group C", name)

	for _, code := range []int{-1, 3} {
		_, ok = m.Name(code)
		require.False(t, ok)
	}
}

func testParameters() *io.Parameters {
	p := io.DefaultParameters()
	p.Target = "math_score"
	p.NumericFeatures = []string{"reading_score", "writing_score"}
	p.NominalFeatures = []string{"gender", "lunch"}
	p.Ordinal.Features = []string{"parental_level_of_education"}
	p.Ordinal.Categories = map[string][]string{
		"parental_level_of_education": {"some high school", "high school", "some college"},
	}
	return p
}

func TestNewSchema(t *testing.T) {
	s, err := NewSchema(testParameters())
	require.NoError(t, err)
	require.Equal(t, []string{"gender", "lunch", "parental_level_of_education"}, s.Categorical())
	require.Equal(t, []string{"reading_score", "writing_score", "gender", "lunch", "parental_level_of_education"}, s.Features())
	require.Equal(t, "high school", s.Ordinal[0].Categories[1])

	table := io.NewTable([]string{"reading_score", "writing_score", "gender", "lunch", "parental_level_of_education"})
	require.NoError(t, s.CheckColumns(table, false))
	err = s.CheckColumns(table, true)
	require.True(t, errors.Is(err, io.ErrMissingColumn))
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *io.Parameters)
	}{
		{"no order", func(p *io.Parameters) { p.Ordinal.Categories = nil }},
		{"empty order", func(p *io.Parameters) {
			p.Ordinal.Categories["parental_level_of_education"] = nil
		}},
		{"duplicate category", func(p *io.Parameters) {
			p.Ordinal.Categories["parental_level_of_education"] = []string{"high school", "high school"}
		}},
		{"two roles", func(p *io.Parameters) { p.NominalFeatures = append(p.NominalFeatures, "reading_score") }},
		{"target as feature", func(p *io.Parameters) { p.NumericFeatures = append(p.NumericFeatures, "math_score") }},
		{"no features", func(p *io.Parameters) {
			p.NumericFeatures, p.NominalFeatures, p.Ordinal.Features = nil, nil, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters()
			tt.modify(p)
			_, err := NewSchema(p)
			require.True(t, errors.Is(err, ErrInvalidSchema))
		})
	}
}

func TestRidge_FitPredict(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		1, 0,
		2, 1,
		3, 5,
		4, 2,
		5, 3,
		6, 9,
	})
	y := make([]float64, 6)
	for i := range y {
		y[i] = 3 + 2*x.At(i, 0) - x.At(i, 1)
	}

	r := NewRidge(1e-9)
	require.NoError(t, r.Fit(x, y))
	require.InDelta(t, 2.0, r.Coef[0], 1e-6)
	require.InDelta(t, -1.0, r.Coef[1], 1e-6)
	require.InDelta(t, 3.0, r.Intercept, 1e-6)

	yhat, err := r.Predict(mat.NewDense(1, 2, []float64{10, 4}))
	require.NoError(t, err)
	require.InDelta(t, 19.0, yhat[0], 1e-5)

	_, err = r.Predict(mat.NewDense(1, 3, nil))
	require.Error(t, err)
	require.Equal(t, "Ridge(alpha=1e-09)", r.String())
}

func TestRidge_Collinear(t *testing.T) {
	// second column duplicates the first; the penalty keeps the system solvable
	x := mat.NewDense(4, 2, []float64{1, 1, 2, 2, 3, 3, 4, 4})
	y := []float64{1, 2, 3, 4}

	r := NewRidge(1)
	require.NoError(t, r.Fit(x, y))
	require.InDelta(t, r.Coef[0], r.Coef[1], 1e-12)
}

func TestRidge_Errors(t *testing.T) {
	_, err := NewRidge(1).Predict(mat.NewDense(1, 1, nil))
	require.Error(t, err)
	require.Error(t, NewRidge(1).Fit(mat.NewDense(2, 1, nil), []float64{1}))
}
