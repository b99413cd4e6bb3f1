package core

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// temperature = 2*humidity - pressure + 5
const linearCSV = `date,humidity,pressure,temperature
d1,1,2,5
d2,2,1,8
d3,3,5,6
d4,4,3,10
d5,5,4,11
`

func TestTrainAndPredictLinearModel(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(linearCSV))
	require.NoError(t, err)

	model, err := TrainLinearModel(table, "weather_20230201.csv", TrainingParams{Target: "temperature"})
	require.NoError(t, err)

	assert.Equal(t, []string{"humidity", "pressure"}, model.Features)
	assert.InDelta(t, 2.0, model.Coefficients[0], 1e-9)
	assert.InDelta(t, -1.0, model.Coefficients[1], 1e-9)
	assert.InDelta(t, 5.0, model.Intercept, 1e-9)
	assert.Equal(t, "weather_20230201.csv", model.TrainedOn)

	predictions, err := model.Predict(table)
	require.NoError(t, err)
	for i, want := range []float64{5, 8, 6, 10, 11} {
		assert.InDelta(t, want, predictions[i], 1e-9)
	}
}

func TestTrainLinearModelSkipsConstantFeature(t *testing.T) {
	const withStation = `date,humidity,pressure,temperature,station
d1,1,2,5,1
d2,2,1,8,1
d3,3,5,6,1
d4,4,3,10,1
d5,5,4,11,1
`
	table, err := ParseCSV(strings.NewReader(withStation))
	require.NoError(t, err)
	require.Equal(t, []string{"humidity", "pressure", "temperature", "station"}, table.NumericColumns())

	model, err := TrainLinearModel(table, "weather_20230201.csv", TrainingParams{Target: "temperature"})
	require.NoError(t, err)
	assert.Equal(t, []string{"humidity", "pressure"}, model.Features)
	assert.InDelta(t, 2.0, model.Coefficients[0], 1e-9)
	assert.InDelta(t, -1.0, model.Coefficients[1], 1e-9)
	assert.InDelta(t, 5.0, model.Intercept, 1e-9)
}

func TestTrainLinearModelIncompleteRows(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(linearCSV + "d6,6,,\nd7,,2,\nd8,1,1,\n"))
	require.NoError(t, err)

	model, err := TrainLinearModel(table, "weather_20230201.csv", TrainingParams{Target: "temperature"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, model.Coefficients[0], 1e-9)
	assert.InDelta(t, -1.0, model.Coefficients[1], 1e-9)
	assert.InDelta(t, 5.0, model.Intercept, 1e-9)

	predictions, err := model.Predict(table)
	require.NoError(t, err)
	require.Len(t, predictions, 8)
	assert.True(t, math.IsNaN(predictions[5]))
	assert.True(t, math.IsNaN(predictions[6]))
	assert.InDelta(t, 6.0, predictions[7], 1e-9, "features present, target missing")
}

func TestTrainLinearModelErrors(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(linearCSV))
	require.NoError(t, err)

	_, err = TrainLinearModel(table, "x", TrainingParams{Target: "wind"})
	assert.Error(t, err)

	_, err = TrainLinearModel(table, "x", TrainingParams{Target: "temperature", Features: []string{"temperature"}})
	assert.Error(t, err)

	small, err := ParseCSV(strings.NewReader("humidity,pressure,temperature\n1,2,3\n"))
	require.NoError(t, err)
	_, err = TrainLinearModel(small, "x", TrainingParams{Target: "temperature"})
	assert.Error(t, err)
}

func TestSaveLoadLinearModel(t *testing.T) {
	model := &LinearModel{
		Target:       "temperature",
		Features:     []string{"humidity"},
		Coefficients: []float64{0.5},
		Intercept:    1,
		TrainedOn:    "weather_20230201.csv",
	}

	var buf bytes.Buffer
	require.NoError(t, model.Save(&buf))

	loaded, err := LoadLinearModel(&buf)
	require.NoError(t, err)
	assert.Equal(t, model, loaded)

	_, err = LoadLinearModel(strings.NewReader(`{"features":["a","b"],"coefficients":[1]}`))
	assert.Error(t, err)
}
