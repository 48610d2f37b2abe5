package pkg

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"scorecast/pkg/features"
	"scorecast/pkg/io"
)

// FeatureSet holds the model-ready train and test matrices.
type FeatureSet struct {
	XTrain   *mat.Dense
	YTrain   []float64
	XTest    *mat.Dense
	YTest    []float64
	Pipeline *features.FittedPipeline
}

// Transform fits the feature pipeline on the train split, applies the fitted
// state to the test split and persists the pipeline and both matrices.
func Transform(store *io.Store, paths Paths, logger zerolog.Logger) (*FeatureSet, error) {
	logger.Info().Msg("Feature transformation initiated")

	params, schema, err := loadParameters(store, paths.Parameters)
	if err != nil {
		return nil, err
	}
	train, err := store.LoadTable(paths.Train)
	if err != nil {
		return nil, err
	}
	test, err := store.LoadTable(paths.Test)
	if err != nil {
		return nil, err
	}

	pipeline := features.NewPipeline(schema, params.Imputer.Strategy, logger)
	xTrain, yTrain, fitted, err := pipeline.FitTransform(train)
	if err != nil {
		return nil, errors.Wrapf(err, "error fitting feature pipeline on %s", paths.Train)
	}
	xTest, err := fitted.Transform(test)
	if err != nil {
		return nil, errors.Wrapf(err, "error transforming %s", paths.Test)
	}
	yTest, err := fitted.Target(test)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading target of %s", paths.Test)
	}

	if err := store.SaveModel(paths.Pipeline, fitted); err != nil {
		return nil, err
	}
	if err := store.SaveTable(paths.TrainFeatures, featureTable(xTrain, fitted.Features, schema.Target, yTrain)); err != nil {
		return nil, err
	}
	if err := store.SaveTable(paths.TestFeatures, featureTable(xTest, fitted.Features, schema.Target, yTest)); err != nil {
		return nil, err
	}

	logger.Info().Int("features", len(fitted.Features)).Msg("Feature transformation completed")
	return &FeatureSet{
		XTrain:   xTrain,
		YTrain:   yTrain,
		XTest:    xTest,
		YTest:    yTest,
		Pipeline: fitted,
	}, nil
}
