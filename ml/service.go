package ml

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ServiceConfig controls encoding and memoization.
type ServiceConfig struct {
	// IdentifierPattern removes matching columns from the model schema;
	// empty keeps every column.
	IdentifierPattern string
	// CacheSize bounds the in-memory label memo; 0 disables it.
	CacheSize int
}

// Prediction is the transient result of one submission.
type Prediction struct {
	Label  Label
	Row    EncodedRow
	Cached bool
}

// Service owns the loaded bundle and serves predictions. Submissions are
// handled to completion one at a time.
type Service struct {
	bundle  *Bundle
	encoder *Encoder
	cache   *lru.Cache[string, Label]
	logger  *zap.Logger

	mu sync.Mutex
}

func NewService(bundle *Bundle, cfg ServiceConfig, logger *zap.Logger) (*Service, error) {
	if bundle == nil || bundle.Schema == nil || bundle.Predictor == nil {
		return nil, errors.New("incomplete model bundle")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var identifiers *regexp.Regexp
	if cfg.IdentifierPattern != "" {
		re, err := regexp.Compile(cfg.IdentifierPattern)
		if err != nil {
			return nil, fmt.Errorf("identifier pattern: %w", err)
		}
		identifiers = re
	}

	encoder, err := NewEncoder(bundle.Schema, identifiers)
	if err != nil {
		return nil, err
	}

	s := &Service{
		bundle:  bundle,
		encoder: encoder,
		logger:  logger.Named("predictor"),
	}
	if cfg.CacheSize > 0 {
		s.cache, err = lru.New[string, Label](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("prediction cache: %w", err)
		}
	}

	if dropped := encoder.Dropped(); len(dropped) > 0 {
		s.logger.Info("identifier columns removed", zap.Strings("columns", dropped))
	}
	for _, e := range multierr.Errors(encoder.Check()) {
		s.logger.Warn("form field ignored", zap.Error(e))
	}
	if want, have := bundle.Predictor.NumFeatures(), encoder.Schema().Len(); want > 0 && want != have {
		s.logger.Warn("predictor width differs from encoded row; predictions will fail",
			zap.Int("predictor_features", want),
			zap.Int("row_features", have))
	}
	return s, nil
}

func (s *Service) Bundle() *Bundle { return s.bundle }

func (s *Service) Encoder() *Encoder { return s.encoder }

// Encode normalizes and validates in, then aligns it to the model schema.
func (s *Service) Encode(in RawInput) (EncodedRow, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return EncodedRow{}, err
	}
	return s.encoder.Encode(in), nil
}

// Predict encodes in and runs the predictor. Predictor failures come back as
// *PredictionError; invalid input as *ValidationError.
func (s *Service) Predict(ctx context.Context, in RawInput) (*Prediction, error) {
	row, err := s.Encode(in)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := row.key()
	if s.cache != nil {
		if label, ok := s.cache.Get(key); ok {
			return &Prediction{Label: label, Row: row, Cached: true}, nil
		}
	}

	label, err := s.invoke(row.values)
	if err != nil {
		s.logger.Warn("prediction failed", zap.Error(err))
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, label)
	}
	s.logger.Debug("prediction", zap.Stringer("label", label), zap.Int("features", row.Len()))
	return &Prediction{Label: label, Row: row}, nil
}

// invoke is the failure boundary around the predictor: errors and panics
// become *PredictionError.
func (s *Service) invoke(features []float64) (label Label, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PredictionError{Kind: ModelFailure, Err: fmt.Errorf("predictor panicked: %v", r)}
		}
	}()

	raw, err := s.bundle.Predictor.Predict(features)
	if err != nil {
		var perr *PredictionError
		if errors.As(err, &perr) {
			return 0, perr
		}
		return 0, &PredictionError{Kind: ModelFailure, Err: err}
	}
	switch Label(raw) {
	case Pass, Fail:
		return Label(raw), nil
	default:
		return 0, &PredictionError{Kind: BadLabel, Err: fmt.Errorf("predictor returned label %d", raw)}
	}
}
