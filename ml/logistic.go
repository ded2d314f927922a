package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticRegression is a fitted binary linear classifier.
type LogisticRegression struct {
	weights   []float64
	intercept float64
	threshold float64
}

type logisticParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    *float64  `json:"threshold,omitempty"`
}

func NewLogisticRegression(weights []float64, intercept float64, threshold float64) (*LogisticRegression, error) {
	if len(weights) == 0 {
		return nil, errors.New("no coefficients")
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold %v outside (0,1)", threshold)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return &LogisticRegression{
		weights:   append([]float64(nil), weights...),
		intercept: intercept,
		threshold: threshold,
	}, nil
}

func (m *LogisticRegression) NumFeatures() int { return len(m.weights) }

// Probability returns P(Pass) for one row.
func (m *LogisticRegression) Probability(features []float64) (float64, error) {
	if len(features) != len(m.weights) {
		return 0, shapeErr(len(m.weights), len(features))
	}
	sum := m.intercept
	for i, v := range features {
		sum += m.weights[i] * v
	}
	return sigmoid(sum), nil
}

func (m *LogisticRegression) Predict(features []float64) (int, error) {
	p, err := m.Probability(features)
	if err != nil {
		return 0, err
	}
	if p >= m.threshold {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
