package pkg

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"scorecast/pkg/io"
)

// Ingest splits the raw dataset into the train and test artifacts.
func Ingest(store *io.Store, paths Paths, logger zerolog.Logger) error {
	logger.Info().Msg("Data ingestion initiated")

	params, err := store.LoadConfig(paths.Parameters)
	if err != nil {
		return err
	}
	raw, err := store.LoadTable(paths.RawData)
	if err != nil {
		return err
	}
	if _, ok := raw.ColumnIndex(params.Target); !ok {
		return errors.Wrapf(io.ErrMissingColumn, "target %s in %s", params.Target, paths.RawData)
	}

	seed := time.Now().UnixNano()
	if params.RandomState != nil {
		seed = *params.RandomState
	}
	train, test, err := io.NewDataSet(raw, rand.New(rand.NewSource(seed))).TrainTestSplit(params.TestSize)
	if err != nil {
		return errors.Wrapf(err, "error splitting %s", paths.RawData)
	}

	if err := store.SaveTable(paths.Train, train); err != nil {
		return err
	}
	if err := store.SaveTable(paths.Test, test); err != nil {
		return err
	}
	logger.Info().
		Int("train", train.Size()).
		Int("test", test.Size()).
		Str("trainPath", paths.Train).
		Str("testPath", paths.Test).
		Msg("Data ingestion completed")
	return nil
}
