package ml

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is matched by any PredictionError caused by a row whose
// width does not fit the loaded predictor.
var ErrShapeMismatch = errors.New("feature row shape mismatch")

// LoadError reports a model artifact that cannot be served. It is fatal.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("load model %q: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(path, reason string, err error) *LoadError {
	return &LoadError{Path: path, Reason: reason, Err: err}
}

// PredictionErrorKind classifies a failed predictor call.
type PredictionErrorKind string

const (
	ShapeMismatch PredictionErrorKind = "shape_mismatch"
	BadLabel      PredictionErrorKind = "bad_label"
	ModelFailure  PredictionErrorKind = "model_failure"
)

// PredictionError is returned when the predictor fails on an encoded row.
// The process stays usable; the next submission is handled normally.
type PredictionError struct {
	Kind PredictionErrorKind
	Err  error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed (%s): %v", e.Kind, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

func (e *PredictionError) Is(target error) bool {
	return target == ErrShapeMismatch && e.Kind == ShapeMismatch
}

func shapeErr(want, got int) *PredictionError {
	return &PredictionError{
		Kind: ShapeMismatch,
		Err:  fmt.Errorf("model expects %d features, row has %d", want, got),
	}
}
