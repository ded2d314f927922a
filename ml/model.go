package ml

import "io"

// Label is the binary outcome produced by a predictor.
type Label int

const (
	Fail Label = 0
	Pass Label = 1
)

func (l Label) String() string {
	if l == Pass {
		return "Pass"
	}
	return "Fail"
}

// Predictor scores one encoded feature vector.
type Predictor interface {
	Predict(features []float64) (int, error)
	// NumFeatures is the input width the predictor requires, or 0 when the
	// artifact does not record it.
	NumFeatures() int
}

// Bundle is a loaded model artifact: the predictor and the columns it was
// trained on. It is read-only once returned by LoadBundle.
type Bundle struct {
	Name      string
	Kind      string
	Schema    *Schema
	Predictor Predictor
}

// Close releases native resources held by the predictor, if any.
func (b *Bundle) Close() error {
	if c, ok := b.Predictor.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
