package io

import (
	gio "io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ImputeMean         = "mean"
	ImputeMedian       = "median"
	ImputeMostFrequent = "most_frequent"
)

// Parameters is the content of parameters.yml.
type Parameters struct {
	TestSize        float64           `yaml:"test_size"`
	RandomState     *int64            `yaml:"random_state,omitempty"`
	Target          string            `yaml:"target"`
	NumericFeatures []string          `yaml:"numeric_features"`
	NominalFeatures []string          `yaml:"nominal_features"`
	Ordinal         OrdinalParameters `yaml:"ordinal"`
	Imputer         ImputerParameters `yaml:"imputer"`
	Model           ModelParameters   `yaml:"model"`
}

type OrdinalParameters struct {
	Features []string `yaml:"features"`

	// Categories holds the domain order of each ordinal feature, lowest rank first
	Categories map[string][]string `yaml:"categories"`
}

type ImputerParameters struct {
	Strategy string `yaml:"strategy"`
}

type ModelParameters struct {
	// Alpha is the ridge penalty of the regressor
	Alpha float64 `yaml:"alpha"`
}

func DefaultParameters() *Parameters {
	return &Parameters{
		TestSize: 0.2,
		Imputer:  ImputerParameters{Strategy: ImputeMean},
		Model:    ModelParameters{Alpha: 1.0},
	}
}

// ReadParameters decodes parameters.yml on top of DefaultParameters.
func ReadParameters(input gio.Reader) (*Parameters, error) {
	p := DefaultParameters()
	if err := yaml.NewDecoder(input).Decode(p); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling parameters")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parameters) Validate() error {
	if p.TestSize <= 0 || p.TestSize >= 1 {
		return errors.Errorf("test_size must be in (0, 1), got %v", p.TestSize)
	}
	if p.Target == "" {
		return errors.New("target required")
	}
	switch p.Imputer.Strategy {
	case ImputeMean, ImputeMedian, ImputeMostFrequent:
	default:
		return errors.Errorf("unknown imputer strategy %q", p.Imputer.Strategy)
	}
	if p.Model.Alpha < 0 {
		return errors.Errorf("model alpha must not be negative, got %v", p.Model.Alpha)
	}
	return nil
}
