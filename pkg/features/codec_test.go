package features

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

func TestCodec_RoundTrip(t *testing.T) {
	values := []string{"group C", "group A", "group E", "group A", "group B", "group D"}
	m := model.NewCategoryMap("race_ethnicity", values)

	encoded, err := Encode(values, m)
	require.NoError(t, err)
	codes := make([]int, len(encoded))
	for i, v := range encoded {
		codes[i] = int(v)
	}
	require.Equal(t, []int{2, 0, 4, 0, 1, 3}, codes)

	decoded, err := Decode(codes, m)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestEncode_MissingAndUnknown(t *testing.T) {
	m := model.NewCategoryMap("lunch", []string{"standard", "free/reduced"})

	encoded, err := Encode([]string{"standard", "", "NA"}, m)
	require.NoError(t, err)
	require.Equal(t, 1.0, encoded[0])
	require.True(t, math.IsNaN(encoded[1]))
	require.True(t, math.IsNaN(encoded[2]))

	_, err = Encode([]string{"standard", "catered"}, m)
	require.True(t, errors.Is(err, ErrUnknownCategory))
}

func TestDecode_OutOfRange(t *testing.T) {
	m := model.NewCategoryMap("gender", []string{"male", "female"})
	for _, code := range []int{-1, 2} {
		_, err := Decode([]int{0, code}, m)
		require.True(t, errors.Is(err, ErrCodeOutOfRange))
	}
}

func TestRestoreCodes(t *testing.T) {
	imputed := []float64{-0.6, 0.4, 1.5, 2.49, 1.9}

	// rounding and absolute value are applied before the cast
	require.Equal(t, []int{1, 0, 2, 2, 2}, restoreCodes(imputed, true))
	// columns without training gaps are cast directly
	require.Equal(t, []int{0, 0, 1, 2, 1}, restoreCodes(imputed, false))

	// halves round to the even code
	require.Equal(t, []int{0, 2, 2, 4}, restoreCodes([]float64{0.5, 2.5, -1.5, 3.5}, true))

	m := model.NewCategoryMap("parental_level_of_education", []string{"high school", "bachelor's degree", "some college"})
	labels, err := Decode(restoreCodes([]float64{-0.6, 1.6}, true), m)
	require.NoError(t, err)
	require.Equal(t, []string{"high school", "some college"}, labels)
}

func TestFitCodec(t *testing.T) {
	table := io.NewTable([]string{"gender", "lunch"})
	table.Rows = [][]string{{"male", ""}, {"female", ""}}

	c, err := FitCodec(table, []string{"gender"})
	require.NoError(t, err)
	require.Equal(t, []string{"female", "male"}, c.Maps["gender"].IndexToName)

	_, err = FitCodec(table, []string{"lunch"})
	require.Error(t, err)

	_, err = FitCodec(table, []string{"race_ethnicity"})
	require.True(t, errors.Is(err, io.ErrMissingColumn))
}
