package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"scorecast/pkg"
	"scorecast/pkg/io"
)

func IngestCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Splits the raw student dataset into train and test artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pkg.Ingest(store, paths, log.Logger)
		},
	}
}

func TransformCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Fits the feature pipeline on the train split and writes model-ready features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pkg.Transform(store, paths, log.Logger)
			return err
		},
	}
}

func TrainCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Trains the regressor on the transformed train split and saves it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pkg.Train(store, paths, log.Logger)
			return err
		},
	}
}

func EvaluateCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Reports R-squared and adjusted R-squared of the saved model on the test split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pkg.Evaluate(store, paths, log.Logger)
			return err
		},
	}
}

func PredictCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	return &cobra.Command{
		Use:   "predict < records.csv",
		Short: "Reads student records as CSV on stdin and writes them with a predicted math_score to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := pkg.LoadPredictor(store, paths, log.Logger)
			if err != nil {
				return err
			}
			records, err := io.ReadStudentRecords(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return errors.New("no records to score")
			}
			scored, err := predictor.Score(records)
			if err != nil {
				return err
			}
			return io.WriteScoredRecords(cmd.OutOrStdout(), scored)
		},
	}
}

var logLevel string
var logFormat string

func RootCommand(store *io.Store, paths pkg.Paths) *cobra.Command {
	root := &cobra.Command{
		Use:               "scorecast",
		Short:             "Math score prediction pipeline",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}

	root.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "Logging level: info error or debug")
	root.PersistentFlags().StringVarP(&logFormat, "log-format", "", "pretty", "Logging format: pretty or json")

	root.AddCommand(IngestCommand(store, paths))
	root.AddCommand(TransformCommand(store, paths))
	root.AddCommand(TrainCommand(store, paths))
	root.AddCommand(EvaluateCommand(store, paths))
	root.AddCommand(PredictCommand(store, paths))
	return root
}

func main() {
	if err := RootCommand(io.NewOsStore("."), pkg.DefaultPaths()).Execute(); err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {

	switch logLevel {
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		return errors.Errorf("invalid logging level %q", logLevel)
	}

	switch logFormat {
	case "pretty":
		setupPrettyLogging()
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		return errors.Errorf("invalid log format %q", logFormat)
	}
	return nil
}

func setupPrettyLogging() {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	writer.FormatFieldValue = func(i interface{}) string {
		switch v := i.(type) {
		case json.Number:
			val, _ := v.Float64()
			return fmt.Sprintf("%.3f", val)
		default:
			return fmt.Sprintf("%s", i)
		}

	}
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}
