package pkg

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"scorecast/pkg/io"
)

var ErrDegenerateAdjustedR2 = errors.New("adjusted R-squared is undefined")

// Evaluation summarises a model's fit on the held out split.
type Evaluation struct {
	Model      string
	Rows       int
	Features   int
	R2         float64
	AdjustedR2 float64
	RMSE       float64
}

// Evaluate scores the persisted model against the persisted test split.
func Evaluate(store *io.Store, paths Paths, logger zerolog.Logger) (*Evaluation, error) {
	logger.Info().Msg("Model evaluation initiated")

	pipeline, err := loadPipeline(store, paths.Pipeline)
	if err != nil {
		return nil, err
	}
	regressor, err := loadRegressor(store, paths.Model)
	if err != nil {
		return nil, err
	}
	test, err := store.LoadTable(paths.Test)
	if err != nil {
		return nil, err
	}

	x, err := pipeline.Transform(test)
	if err != nil {
		return nil, errors.Wrapf(err, "error transforming %s", paths.Test)
	}
	y, err := pipeline.Target(test)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading target of %s", paths.Test)
	}
	yhat, err := regressor.Predict(x)
	if err != nil {
		return nil, errors.Wrapf(err, "error predicting %s", paths.Test)
	}

	evaluator := &regressionEvaluator{logger: logger}
	for i := range y {
		evaluator.EvaluatePrediction(yhat[i], y[i])
	}
	result, err := evaluator.Evaluate(x)
	if err != nil {
		return nil, err
	}
	result.Model = fmt.Sprint(regressor)
	evaluator.LogMetrics(result)
	return result, nil
}

type regressionEvaluator struct {
	estimated []float64
	values    []float64
	logger    zerolog.Logger
}

func (r *regressionEvaluator) EvaluatePrediction(prediction, target float64) {
	r.logger.Debug().Float64("Target", target).Float64("Prediction", prediction).Msg("")
	r.estimated = append(r.estimated, prediction)
	r.values = append(r.values, target)
}

func (r *regressionEvaluator) Evaluate(x mat.Matrix) (*Evaluation, error) {
	rows, cols := x.Dims()
	adjusted, err := AdjustedR2(x, r.values, r.estimated)
	if err != nil {
		return nil, err
	}
	sse := 0.0
	for i := range r.values {
		d := r.values[i] - r.estimated[i]
		sse += d * d
	}
	return &Evaluation{
		Rows:       rows,
		Features:   cols,
		R2:         stat.RSquaredFrom(r.estimated, r.values, nil),
		AdjustedR2: adjusted,
		RMSE:       math.Sqrt(sse / float64(len(r.values))),
	}, nil
}

func (r *regressionEvaluator) LogMetrics(e *Evaluation) {
	r.logger.Info().
		Str("Model", e.Model).
		Int("Rows", e.Rows).
		Int("Features", e.Features).
		Float64("R-squared", e.R2).
		Float64("Adjusted R-squared", e.AdjustedR2).
		Float64("RMSE", e.RMSE).
		Msg("Model evaluation completed")
}

// AdjustedR2 computes 1 - (1-R²)(n-1)/(n-p-1) for predictions yhat of y
// made from the n×p feature matrix x.
func AdjustedR2(x mat.Matrix, y, yhat []float64) (float64, error) {
	n, p := x.Dims()
	if len(y) != n || len(yhat) != n {
		return 0, errors.Errorf("adjusted R-squared: %d rows, %d targets, %d predictions", n, len(y), len(yhat))
	}
	if n-p-1 <= 0 {
		return 0, errors.Wrapf(ErrDegenerateAdjustedR2, "%d rows with %d features", n, p)
	}
	mean := stat.Mean(y, nil)
	sst := 0.0
	for _, v := range y {
		sst += (v - mean) * (v - mean)
	}
	if sst == 0 {
		return 0, errors.Wrap(ErrDegenerateAdjustedR2, "target has no variance")
	}
	r2 := stat.RSquaredFrom(yhat, y, nil)
	return 1 - (1-r2)*float64(n-1)/float64(n-p-1), nil
}
