package pkg

import (
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/features"
	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

// Paths locates every artifact relative to the store root.
type Paths struct {
	Parameters    string
	RawData       string
	Train         string
	Test          string
	Pipeline      string
	Model         string
	TrainFeatures string
	TestFeatures  string
}

func DefaultPaths() Paths {
	return Paths{
		Parameters:    "conf/parameters.yml",
		RawData:       "data/student_performance.csv",
		Train:         "artifacts/train.csv",
		Test:          "artifacts/test.csv",
		Pipeline:      "artifacts/feature_transformer.pkl",
		Model:         "artifacts/model.pkl",
		TrainFeatures: "artifacts/train_features.csv",
		TestFeatures:  "artifacts/test_features.csv",
	}
}

func loadParameters(store *io.Store, path string) (*io.Parameters, *model.Schema, error) {
	params, err := store.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	schema, err := model.NewSchema(params)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parameters %s", path)
	}
	return params, schema, nil
}

func loadPipeline(store *io.Store, path string) (*features.FittedPipeline, error) {
	obj, err := store.LoadModel(path)
	if err != nil {
		return nil, err
	}
	p, ok := obj.(*features.FittedPipeline)
	if !ok {
		return nil, errors.Wrapf(io.ErrArtifactKindMismatch, "%s holds %T, not a fitted feature pipeline", path, obj)
	}
	return p, nil
}

func loadRegressor(store *io.Store, path string) (model.Regressor, error) {
	obj, err := store.LoadModel(path)
	if err != nil {
		return nil, err
	}
	r, ok := obj.(model.Regressor)
	if !ok {
		return nil, errors.Wrapf(io.ErrArtifactKindMismatch, "%s holds %T, not a regressor", path, obj)
	}
	return r, nil
}

// featureTable lays out a feature matrix as a table, followed by the target
// column.
func featureTable(x mat.Matrix, names []string, target string, y []float64) *io.Table {
	rows, cols := x.Dims()
	t := io.NewTable(append(append([]string(nil), names...), target))
	t.Rows = make([][]string, rows)
	for i := 0; i < rows; i++ {
		row := make([]string, cols+1)
		for j := 0; j < cols; j++ {
			row[j] = formatFloat(x.At(i, j))
		}
		row[cols] = formatFloat(y[i])
		t.Rows[i] = row
	}
	return t
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
