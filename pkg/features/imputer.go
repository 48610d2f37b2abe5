package features

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/io"
)

// Imputer replaces NaN cells with a per column statistic computed once, at
// fit time, from the non-missing training values.
type Imputer struct {
	Strategy   string
	Statistics []float64
}

func NewImputer(strategy string) *Imputer {
	return &Imputer{Strategy: strategy}
}

func (im *Imputer) Fitted() bool {
	return im.Statistics != nil
}

// Fit computes the fill statistics. A fitted imputer refuses to be fitted
// again so that test data can never overwrite the training state.
func (im *Imputer) Fit(x mat.Matrix) error {
	if im.Fitted() {
		return errors.New("imputer is already fitted")
	}
	rows, cols := x.Dims()
	statistics := make([]float64, cols)
	for j := 0; j < cols; j++ {
		observed := make([]float64, 0, rows)
		for i := 0; i < rows; i++ {
			if v := x.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.Errorf("column %d has no observed values", j)
		}
		s, err := im.statistic(observed)
		if err != nil {
			return errors.Wrapf(err, "error computing %s of column %d", im.Strategy, j)
		}
		statistics[j] = s
	}
	im.Statistics = statistics
	return nil
}

func (im *Imputer) statistic(observed []float64) (float64, error) {
	switch im.Strategy {
	case io.ImputeMean:
		return stats.Mean(observed)
	case io.ImputeMedian:
		return stats.Median(observed)
	case io.ImputeMostFrequent:
		return mostFrequent(observed)
	default:
		return 0, errors.Errorf("unknown imputer strategy %q", im.Strategy)
	}
}

// mostFrequent returns the most common value, the smallest one on ties.
// stats.Mode reports no mode when every value is equally frequent, in which
// case all values tie.
func mostFrequent(values []float64) (float64, error) {
	modes, err := stats.Mode(values)
	if err != nil {
		return 0, err
	}
	if len(modes) == 0 {
		return stats.Min(values)
	}
	return stats.Min(modes)
}

// Apply returns a copy of x with every NaN replaced by its column statistic.
// Observed cells are copied unchanged.
func (im *Imputer) Apply(x mat.Matrix) (*mat.Dense, error) {
	if !im.Fitted() {
		return nil, errors.Wrap(ErrNotFitted, "imputer")
	}
	rows, cols := x.Dims()
	if cols != len(im.Statistics) {
		return nil, errors.Errorf("imputer fitted on %d columns, got %d", len(im.Statistics), cols)
	}
	result := mat.DenseCopyOf(x)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(result.At(i, j)) {
				result.Set(i, j, im.Statistics[j])
			}
		}
	}
	return result, nil
}
