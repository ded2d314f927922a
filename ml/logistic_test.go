package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogisticRegressionPredict(t *testing.T) {
	model, err := NewLogisticRegression([]float64{1, -1}, 0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, model.NumFeatures())

	p, err := model.Probability([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)

	label, err := model.Predict([]float64{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	label, err = model.Predict([]float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestLogisticRegressionShapeMismatch(t *testing.T) {
	model, err := NewLogisticRegression([]float64{1, 2, 3}, 0, 0.5)
	require.NoError(t, err)

	_, err = model.Predict([]float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)

	var perr *PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ShapeMismatch, perr.Kind)
}

func TestNewLogisticRegressionValidation(t *testing.T) {
	_, err := NewLogisticRegression(nil, 0, 0.5)
	assert.Error(t, err)
	_, err = NewLogisticRegression([]float64{1}, 0, 1)
	assert.Error(t, err)
	_, err = NewLogisticRegression([]float64{math.NaN()}, 0, 0.5)
	assert.Error(t, err)
}
