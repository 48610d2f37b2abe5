package pkg

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"scorecast/pkg/io"
	"scorecast/pkg/model"
)

// Train fits a ridge regressor on the transformed train split and persists it.
func Train(store *io.Store, paths Paths, logger zerolog.Logger) (*model.Ridge, error) {
	logger.Info().Msg("Model training initiated")

	params, err := store.LoadConfig(paths.Parameters)
	if err != nil {
		return nil, err
	}
	pipeline, err := loadPipeline(store, paths.Pipeline)
	if err != nil {
		return nil, err
	}
	train, err := store.LoadTable(paths.Train)
	if err != nil {
		return nil, err
	}

	x, err := pipeline.Transform(train)
	if err != nil {
		return nil, errors.Wrapf(err, "error transforming %s", paths.Train)
	}
	y, err := pipeline.Target(train)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading target of %s", paths.Train)
	}

	ridge := model.NewRidge(params.Model.Alpha)
	if err := ridge.Fit(x, y); err != nil {
		return nil, errors.Wrapf(err, "error fitting %s", ridge)
	}
	if err := store.SaveModel(paths.Model, ridge); err != nil {
		return nil, err
	}

	yhat, err := ridge.Predict(x)
	if err != nil {
		return nil, err
	}
	if adjusted, err := AdjustedR2(x, y, yhat); err != nil {
		logger.Warn().Err(err).Msg("Train adjusted R-squared unavailable")
	} else {
		logger.Info().Str("Model", ridge.String()).Float64("Adjusted R-squared", adjusted).Msg("Model training completed")
	}
	return ridge, nil
}
