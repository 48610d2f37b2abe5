package features

import (
	"encoding/gob"
	"math"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

var (
	ErrNotFitted      = errors.New("not fitted")
	ErrLayoutMismatch = errors.New("feature layout mismatch")
)

func init() {
	gob.Register(&FittedPipeline{})
}

// Pipeline fits the feature transformation on a training table.
type Pipeline struct {
	schema   *model.Schema
	strategy string
	logger   zerolog.Logger
}

func NewPipeline(schema *model.Schema, imputeStrategy string, logger zerolog.Logger) *Pipeline {
	return &Pipeline{schema: schema, strategy: imputeStrategy, logger: logger}
}

// FittedPipeline is the persisted state of a fitted Pipeline. It is never
// modified after FitTransform returns, so a loaded value can serve concurrent
// Transform calls.
type FittedPipeline struct {
	Schema  model.Schema
	Codec   Codec
	Imputer Imputer

	// MissingMask records, per feature column, whether the training set had a
	// missing value in it
	MissingMask map[string]bool

	Transformer FeatureTransformer

	// Kept holds the transformer output columns that survived deduplication
	// on the training set
	Kept []int

	// Features is the final column layout
	Features []string
}

// FitTransform fits every stage on train and returns the training matrix,
// the training target and the fitted state.
func (p *Pipeline) FitTransform(train *io.Table) (*mat.Dense, []float64, *FittedPipeline, error) {
	if train.Size() == 0 {
		return nil, nil, nil, errors.New("training table is empty")
	}
	if err := p.schema.CheckColumns(train, true); err != nil {
		return nil, nil, nil, errors.Wrap(err, "training table")
	}

	fitted := &FittedPipeline{Schema: *p.schema}
	y, err := fitted.Target(train)
	if err != nil {
		return nil, nil, nil, err
	}

	codec, err := FitCodec(train, p.schema.Categorical())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error fitting codec")
	}
	fitted.Codec = *codec

	encoded, err := fitted.encode(train)
	if err != nil {
		return nil, nil, nil, err
	}
	fitted.MissingMask = missingMask(encoded, p.schema.Features())
	for col, missing := range fitted.MissingMask {
		if missing {
			p.logger.Debug().Str("column", col).Msg("training column has missing values")
		}
	}

	imputer := NewImputer(p.strategy)
	if err := imputer.Fit(encoded); err != nil {
		return nil, nil, nil, errors.Wrap(err, "error fitting imputer")
	}
	fitted.Imputer = *imputer

	imputed, err := fitted.Imputer.Apply(encoded)
	if err != nil {
		return nil, nil, nil, err
	}
	frame, err := fitted.decode(imputed)
	if err != nil {
		return nil, nil, nil, err
	}

	transformer := NewFeatureTransformer(p.schema)
	if err := transformer.Fit(frame); err != nil {
		return nil, nil, nil, errors.Wrap(err, "error fitting feature transformer")
	}
	fitted.Transformer = *transformer

	transformed, err := fitted.Transformer.Transform(frame)
	if err != nil {
		return nil, nil, nil, err
	}
	fitted.Kept = distinctColumns(transformed)
	fitted.Features = fitted.Layout()

	layout := fitted.Transformer.Layout()
	if dropped := len(layout) - len(fitted.Kept); dropped > 0 {
		p.logger.Info().Int("dropped", dropped).Msg("Dropped duplicate feature columns")
	}
	p.logger.Info().
		Int("rows", train.Size()).
		Int("features", len(fitted.Features)).
		Str("imputer", p.strategy).
		Msg("Feature pipeline fitted")

	return selectColumns(transformed, fitted.Kept), y, fitted, nil
}

// Transform applies the fitted state to t, which may lack the target column.
// Duplicate columns are dropped according to the training decision.
func (p *FittedPipeline) Transform(t *io.Table) (*mat.Dense, error) {
	if !p.Transformer.Fitted || p.Kept == nil {
		return nil, ErrNotFitted
	}
	if t.Size() == 0 {
		return nil, errors.New("cannot transform an empty table")
	}
	if err := p.Schema.CheckColumns(t, false); err != nil {
		return nil, err
	}
	encoded, err := p.encode(t)
	if err != nil {
		return nil, err
	}
	imputed, err := p.Imputer.Apply(encoded)
	if err != nil {
		return nil, err
	}
	frame, err := p.decode(imputed)
	if err != nil {
		return nil, err
	}
	transformed, err := p.Transformer.Transform(frame)
	if err != nil {
		return nil, err
	}
	x := selectColumns(transformed, p.Kept)
	if _, cols := x.Dims(); cols != len(p.Features) {
		return nil, errors.Wrapf(ErrLayoutMismatch, "transform produced %d columns, fitted layout has %d", cols, len(p.Features))
	}
	return x, nil
}

// Layout derives the final column names from the fitted transformer and the
// kept column set alone.
func (p *FittedPipeline) Layout() []string {
	full := p.Transformer.Layout()
	layout := make([]string, 0, len(p.Kept))
	for _, k := range p.Kept {
		if k < len(full) {
			layout = append(layout, full[k])
		}
	}
	return layout
}

// Target parses the target column. Missing targets are an error.
func (p *FittedPipeline) Target(t *io.Table) ([]float64, error) {
	values, missing, err := t.Float64Column(p.Schema.Target)
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}
	for r, m := range missing {
		if m {
			return nil, errors.Errorf("target %s is missing at line %d", p.Schema.Target, io.Line(r))
		}
	}
	return values, nil
}

// encode builds the numeric matrix seen by the imputer: one column per
// feature, categorical labels replaced by codes, missing cells as NaN.
func (p *FittedPipeline) encode(t *io.Table) (*mat.Dense, error) {
	features := p.Schema.Features()
	result := mat.NewDense(t.Size(), len(features), nil)
	for j, col := range features {
		var values []float64
		if m, ok := p.Codec.Maps[col]; ok {
			raw, err := t.Column(col)
			if err != nil {
				return nil, err
			}
			if values, err = Encode(raw, m); err != nil {
				return nil, err
			}
		} else {
			parsed, missing, err := t.Float64Column(col)
			if err != nil {
				return nil, err
			}
			for i := range parsed {
				if missing[i] {
					parsed[i] = math.NaN()
				}
			}
			values = parsed
		}
		result.SetCol(j, values)
	}
	return result, nil
}

// decode turns the imputed matrix back into a frame, recovering category
// labels from codes according to the training missing mask.
func (p *FittedPipeline) decode(x mat.Matrix) (*Frame, error) {
	rows, _ := x.Dims()
	frame := NewFrame(rows)
	for j, col := range p.Schema.Features() {
		values := mat.Col(nil, j, x)
		m, ok := p.Codec.Maps[col]
		if !ok {
			frame.Numeric[col] = values
			continue
		}
		labels, err := Decode(restoreCodes(values, p.MissingMask[col]), m)
		if err != nil {
			return nil, err
		}
		frame.Categorical[col] = labels
	}
	return frame, nil
}

func missingMask(x mat.Matrix, columns []string) map[string]bool {
	rows, _ := x.Dims()
	mask := make(map[string]bool, len(columns))
	for j, col := range columns {
		mask[col] = false
		for i := 0; i < rows; i++ {
			if math.IsNaN(x.At(i, j)) {
				mask[col] = true
				break
			}
		}
	}
	return mask
}
