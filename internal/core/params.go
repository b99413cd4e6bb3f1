package core

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"
)

//go:embed params.yaml
var defaultParamsYAML []byte

type DriftParams struct {
	KSThreshold       float64  `yaml:"ks_threshold"`
	MinDriftedColumns int      `yaml:"min_drifted_columns"`
	IgnoreColumns     []string `yaml:"ignore_columns"`
}

type TrainingParams struct {
	Target string `yaml:"target"`
	// Empty means every numeric column other than the target.
	Features []string `yaml:"features"`
}

type InferenceParams struct {
	PredictionColumn string `yaml:"prediction_column"`
}

type Params struct {
	Drift     DriftParams     `yaml:"drift"`
	Training  TrainingParams  `yaml:"training"`
	Inference InferenceParams `yaml:"inference"`
}

func DefaultParams() Params {
	var params Params
	if err := yaml.Unmarshal(defaultParamsYAML, &params); err != nil {
		panic(fmt.Sprintf("embedded params.yaml is invalid: %v", err))
	}
	return params
}

// LoadParams reads pipeline parameters from path. Fields absent from the
// file keep their default values. An empty path returns the defaults.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("error reading params file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &params); err != nil {
		return Params{}, fmt.Errorf("error parsing params file %s: %w", path, err)
	}

	if err := params.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid params file %s: %w", path, err)
	}

	slog.Info("loaded pipeline params", "path", path, "target", params.Training.Target, "ks_threshold", params.Drift.KSThreshold)

	return params, nil
}

func (p Params) Validate() error {
	if p.Drift.KSThreshold <= 0 || p.Drift.KSThreshold > 1 {
		return fmt.Errorf("drift.ks_threshold must be in (0, 1], got %v", p.Drift.KSThreshold)
	}
	if p.Drift.MinDriftedColumns < 1 {
		return fmt.Errorf("drift.min_drifted_columns must be at least 1, got %d", p.Drift.MinDriftedColumns)
	}
	if p.Training.Target == "" {
		return fmt.Errorf("training.target is required")
	}
	if p.Inference.PredictionColumn == "" {
		return fmt.Errorf("inference.prediction_column is required")
	}
	return nil
}
