package ml

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func referenceBundle(t *testing.T) *Bundle {
	t.Helper()
	schema, err := NewSchema(trainingColumns)
	require.NoError(t, err)
	model, err := NewLogisticRegression(passCoefficients, passIntercept, 0.5)
	require.NoError(t, err)
	return &Bundle{Name: "reference", Kind: KindLogisticRegression, Schema: schema, Predictor: model}
}

func stubBundle(t *testing.T, p Predictor) *Bundle {
	t.Helper()
	schema, err := NewSchema(featureColumns)
	require.NoError(t, err)
	return &Bundle{Name: "stub", Kind: "stub", Schema: schema, Predictor: p}
}

func newTestService(t *testing.T, bundle *Bundle, cacheSize int) *Service {
	t.Helper()
	svc, err := NewService(bundle, ServiceConfig{
		IdentifierPattern: DefaultIdentifierPattern,
		CacheSize:         cacheSize,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc
}

func TestServicePredictReferenceProfile(t *testing.T) {
	svc := newTestService(t, referenceBundle(t), 0)

	pred, err := svc.Predict(context.Background(), referenceInput())
	require.NoError(t, err)
	assert.Equal(t, Pass, pred.Label)
	assert.Equal(t, "Pass", pred.Label.String())
	assert.Equal(t, featureColumns, pred.Row.Columns())

	for column, want := range map[string]float64{
		"Gender_Male":                         1,
		"Participation_in_Discussions_Medium": 1,
		"Self_Reported_Stress_Level_Low":      1,
		"Use_of_Educational_Tech_Yes":         1,
		"Gender_Female":                       0,
		"Participation_in_Discussions_Low":    0,
		"Self_Reported_Stress_Level_High":     0,
		"Use_of_Educational_Tech_No":          0,
	} {
		got, ok := pred.Row.Get(column)
		require.True(t, ok, column)
		assert.Equal(t, want, got, column)
	}
}

func TestServicePredictFail(t *testing.T) {
	svc := newTestService(t, referenceBundle(t), 0)

	in := referenceInput()
	in.ExamScore = 20
	pred, err := svc.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, Fail, pred.Label)
	assert.Equal(t, "Fail", pred.Label.String())
}

func TestServiceNormalizesOptions(t *testing.T) {
	svc := newTestService(t, referenceBundle(t), 0)

	in := referenceInput()
	in.Gender = "female"
	pred, err := svc.Predict(context.Background(), in)
	require.NoError(t, err)
	female, _ := pred.Row.Get("Gender_Female")
	assert.Equal(t, 1.0, female)
}

func TestServiceRejectsInvalidInput(t *testing.T) {
	stub := &stubPredictor{label: 1}
	svc := newTestService(t, stubBundle(t, stub), 0)

	in := referenceInput()
	in.Age = 5
	_, err := svc.Predict(context.Background(), in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "age", verr.Fields[0].Field)
	assert.Zero(t, stub.calls)
}

func TestServiceFailureBoundary(t *testing.T) {
	tests := []struct {
		name string
		stub *stubPredictor
		kind PredictionErrorKind
	}{
		{"predictor error", &stubPredictor{err: errStub}, ModelFailure},
		{"predictor panic", &stubPredictor{panicMsg: "index out of range"}, ModelFailure},
		{"shape mismatch", &stubPredictor{err: shapeErr(20, 18)}, ShapeMismatch},
		{"label outside 0/1", &stubPredictor{label: 2}, BadLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, stubBundle(t, tt.stub), 0)

			pred, err := svc.Predict(context.Background(), referenceInput())
			assert.Nil(t, pred)
			var perr *PredictionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.kind == ShapeMismatch, errors.Is(err, ErrShapeMismatch))
		})
	}
}

func TestServiceUsableAfterFailure(t *testing.T) {
	stub := &stubPredictor{err: errStub}
	svc := newTestService(t, stubBundle(t, stub), 0)

	_, err := svc.Predict(context.Background(), referenceInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStub)

	stub.err = nil
	stub.label = 1
	pred, err := svc.Predict(context.Background(), referenceInput())
	require.NoError(t, err)
	assert.Equal(t, Pass, pred.Label)
}

func TestServiceWidthMismatchWithIdentifiers(t *testing.T) {
	// a model fitted with the identifier dummies still in place cannot score
	// the identifier-free row
	schema, err := NewSchema(trainingColumns)
	require.NoError(t, err)
	weights := make([]float64, len(trainingColumns))
	model, err := NewLogisticRegression(weights, 0, 0.5)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	svc, err := NewService(&Bundle{Schema: schema, Predictor: model}, ServiceConfig{
		IdentifierPattern: DefaultIdentifierPattern,
	}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("predictor width").Len())

	_, err = svc.Predict(context.Background(), referenceInput())
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestServiceLogsUnmappedColumns(t *testing.T) {
	schema, err := NewSchema([]string{"Age", "Exam_Score (%)"})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	_, err = NewService(&Bundle{Schema: schema, Predictor: &stubPredictor{}}, ServiceConfig{}, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, len(numericColumns)+len(oneHotColumns)-2, logs.FilterMessage("form field ignored").Len())
}

func TestServiceCache(t *testing.T) {
	stub := &stubPredictor{label: 1}
	svc := newTestService(t, stubBundle(t, stub), 8)

	first, err := svc.Predict(context.Background(), referenceInput())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Predict(context.Background(), referenceInput())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, 1, stub.calls)

	other := referenceInput()
	other.ExamScore = 99
	_, err = svc.Predict(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestServiceFailuresAreNotCached(t *testing.T) {
	stub := &stubPredictor{err: errStub}
	svc := newTestService(t, stubBundle(t, stub), 8)

	_, err := svc.Predict(context.Background(), referenceInput())
	require.Error(t, err)
	_, err = svc.Predict(context.Background(), referenceInput())
	require.Error(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestServiceCancelledContext(t *testing.T) {
	stub := &stubPredictor{label: 1}
	svc := newTestService(t, stubBundle(t, stub), 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Predict(ctx, referenceInput())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stub.calls)
}

func TestNewServiceRejectsIncompleteBundle(t *testing.T) {
	_, err := NewService(nil, ServiceConfig{}, nil)
	require.Error(t, err)

	_, err = NewService(&Bundle{Predictor: &stubPredictor{}}, ServiceConfig{}, nil)
	require.Error(t, err)

	_, err = NewService(stubBundle(t, &stubPredictor{}), ServiceConfig{IdentifierPattern: "("}, nil)
	require.Error(t, err)
}
