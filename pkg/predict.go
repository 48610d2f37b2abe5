package pkg

import (
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"scorecast/pkg/features"
	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

const (
	MinScore = 0
	MaxScore = 100
)

var ErrInvalidPrediction = errors.New("invalid prediction")

// Clamp bounds x to the score range. NaN is returned unchanged.
func Clamp(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Max(MinScore, math.Min(MaxScore, x))
}

// ClampScore rounds a raw prediction half to even and clamps it to the score
// range.
func ClampScore(prediction float64) (int, error) {
	if math.IsNaN(prediction) {
		return 0, ErrInvalidPrediction
	}
	return int(Clamp(math.RoundToEven(prediction))), nil
}

// Predictor scores student records with a fitted pipeline and regressor.
// It is safe for concurrent use.
type Predictor struct {
	pipeline  *features.FittedPipeline
	regressor model.Regressor
	layout    []string
	logger    zerolog.Logger
}

// NewPredictor checks that the layout derived from the fitted transformer
// agrees with the layout stored next to it. The two only diverge when the
// persisted pipeline state is inconsistent.
func NewPredictor(pipeline *features.FittedPipeline, regressor model.Regressor, logger zerolog.Logger) (*Predictor, error) {
	layout := pipeline.Layout()
	if err := sameLayout(layout, pipeline.Features, "stored pipeline layout"); err != nil {
		return nil, err
	}
	return &Predictor{
		pipeline:  pipeline,
		regressor: regressor,
		layout:    layout,
		logger:    logger,
	}, nil
}

// LoadPredictor restores the persisted pipeline and model. The layout is
// derived from the loaded transformer. When the train feature matrix the
// model was fitted on is still present, its header must match that layout.
func LoadPredictor(store *io.Store, paths Paths, logger zerolog.Logger) (*Predictor, error) {
	pipeline, err := loadPipeline(store, paths.Pipeline)
	if err != nil {
		return nil, err
	}
	regressor, err := loadRegressor(store, paths.Model)
	if err != nil {
		return nil, err
	}
	if store.Exists(paths.TrainFeatures) {
		if err := checkTrainedLayout(store, paths.TrainFeatures, pipeline.Layout()); err != nil {
			return nil, err
		}
	}
	return NewPredictor(pipeline, regressor, logger)
}

// checkTrainedLayout compares layout with the feature columns of the train
// matrix at path, whose last column is the target.
func checkTrainedLayout(store *io.Store, path string, layout []string) error {
	trained, err := store.LoadTable(path)
	if err != nil {
		return err
	}
	if len(trained.Columns) == 0 {
		return errors.Wrapf(features.ErrLayoutMismatch, "%s has no header", path)
	}
	return sameLayout(layout, trained.Columns[:len(trained.Columns)-1], path)
}

func sameLayout(derived, recorded []string, source string) error {
	if len(derived) != len(recorded) {
		return errors.Wrapf(features.ErrLayoutMismatch, "derived %d columns, %s has %d", len(derived), source, len(recorded))
	}
	for i := range derived {
		if derived[i] != recorded[i] {
			return errors.Wrapf(features.ErrLayoutMismatch, "column %d is %s, %s has %s", i, derived[i], source, recorded[i])
		}
	}
	return nil
}

func (p *Predictor) Layout() []string {
	return append([]string(nil), p.layout...)
}

// Predict returns one clamped integer score per row of t.
func (p *Predictor) Predict(t *io.Table) ([]int, error) {
	x, err := p.pipeline.Transform(t)
	if err != nil {
		return nil, err
	}
	if _, cols := x.Dims(); cols != len(p.layout) {
		return nil, errors.Wrapf(features.ErrLayoutMismatch, "input has %d columns, model expects %d", cols, len(p.layout))
	}
	raw, err := p.regressor.Predict(x)
	if err != nil {
		return nil, err
	}
	scores := make([]int, len(raw))
	for i, v := range raw {
		score, err := ClampScore(v)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", io.Line(i))
		}
		p.logger.Debug().Int("Row", i).Float64("Raw", v).Int("Score", score).Msg("")
		scores[i] = score
	}
	return scores, nil
}

func (p *Predictor) PredictRecord(record io.StudentRecord) (int, error) {
	scores, err := p.Predict(io.StudentTable(record))
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// Score attaches predictions to a batch of records.
func (p *Predictor) Score(records []io.StudentRecord) ([]io.ScoredRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	scores, err := p.Predict(io.StudentTable(records...))
	if err != nil {
		return nil, err
	}
	scored := make([]io.ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = io.ScoredRecord{StudentRecord: r, MathScore: scores[i]}
	}
	return scored, nil
}
