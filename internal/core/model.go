package core

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is an ordinary least squares regression of Target on Features.
type LinearModel struct {
	Target       string    `json:"target"`
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	TrainedOn    string    `json:"trained_on"`
}

// TrainLinearModel fits the model on the rows where the target and every
// feature are present. Automatically selected features that hold a single
// value are left out since they cannot be separated from the intercept.
func TrainLinearModel(data *Table, datasetName string, params TrainingParams) (*LinearModel, error) {
	if slices.Contains(params.Features, params.Target) {
		return nil, fmt.Errorf("target column '%s' cannot also be a feature", params.Target)
	}

	target, err := data.Column(params.Target)
	if err != nil {
		return nil, fmt.Errorf("error reading target column: %w", err)
	}

	features := params.Features
	if len(features) == 0 {
		for _, col := range data.NumericColumns() {
			if col == params.Target {
				continue
			}
			observed, err := data.Observed(col)
			if err != nil {
				return nil, fmt.Errorf("error reading feature column: %w", err)
			}
			if isConstant(observed) {
				slog.Info("skipping constant feature", "column", col, "dataset", datasetName)
				continue
			}
			features = append(features, col)
		}
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no feature columns available to predict '%s'", params.Target)
	}

	columns := make([][]float64, len(features))
	for j, feature := range features {
		columns[j], err = data.Column(feature)
		if err != nil {
			return nil, fmt.Errorf("error reading feature column: %w", err)
		}
	}

	var complete []int
	for i := range data.Rows {
		if rowComplete(i, target, columns) {
			complete = append(complete, i)
		}
	}

	nRows, nCols := len(complete), len(features)+1
	if nRows < nCols {
		return nil, fmt.Errorf("need at least %d complete rows to fit %d features, got %d", nCols, len(features), nRows)
	}

	x := mat.NewDense(nRows, nCols, nil)
	y := mat.NewVecDense(nRows, nil)
	for r, i := range complete {
		x.Set(r, 0, 1)
		for j := range features {
			x.Set(r, j+1, columns[j][i])
		}
		y.SetVec(r, target[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("error solving least squares for '%s': %w", params.Target, err)
	}

	coefficients := make([]float64, len(features))
	for j := range features {
		coefficients[j] = beta.AtVec(j + 1)
	}

	return &LinearModel{
		Target:       params.Target,
		Features:     slices.Clone(features),
		Coefficients: coefficients,
		Intercept:    beta.AtVec(0),
		TrainedOn:    datasetName,
	}, nil
}

// Predict returns one prediction per row. Rows missing any feature get NaN.
func (m *LinearModel) Predict(data *Table) ([]float64, error) {
	predictions := make([]float64, len(data.Rows))
	for i := range predictions {
		predictions[i] = m.Intercept
	}

	for j, feature := range m.Features {
		values, err := data.Column(feature)
		if err != nil {
			return nil, fmt.Errorf("error reading feature for prediction: %w", err)
		}
		for i, v := range values {
			predictions[i] += m.Coefficients[j] * v
		}
	}

	return predictions, nil
}

func rowComplete(i int, target []float64, features [][]float64) bool {
	if math.IsNaN(target[i]) {
		return false
	}
	for _, col := range features {
		if math.IsNaN(col[i]) {
			return false
		}
	}
	return true
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func (m *LinearModel) Save(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}
	return nil
}

func LoadLinearModel(r io.Reader) (*LinearModel, error) {
	var model LinearModel
	if err := json.NewDecoder(r).Decode(&model); err != nil {
		return nil, fmt.Errorf("error decoding model: %w", err)
	}
	if len(model.Features) != len(model.Coefficients) {
		return nil, fmt.Errorf("model has %d features but %d coefficients", len(model.Features), len(model.Coefficients))
	}
	return &model, nil
}
