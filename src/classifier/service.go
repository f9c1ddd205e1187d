// Package classifier provides the statistical side of categorization: a
// category predictor over transaction descriptions and an outlier detector
// over amounts. Callers hold a Service and must check Available before
// relying on it.
package classifier

import (
	"context"
	"errors"
)

var ErrUnavailable = errors.New("classifier unavailable")

type Prediction struct {
	Category   string
	Confidence float64
}

type Service interface {
	Available() bool
	Predict(ctx context.Context, description string) (Prediction, error)
	IsAnomaly(ctx context.Context, amount float64) (bool, error)
	// ScoreAmounts reports, for each amount, whether it is an outlier.
	ScoreAmounts(ctx context.Context, amounts []float64) ([]bool, error)
}

type unavailable struct{}

// Unavailable returns the degraded-mode Service. Every call fails with
// ErrUnavailable.
func Unavailable() Service {
	return unavailable{}
}

func (unavailable) Available() bool {
	return false
}

func (unavailable) Predict(context.Context, string) (Prediction, error) {
	return Prediction{}, ErrUnavailable
}

func (unavailable) IsAnomaly(context.Context, float64) (bool, error) {
	return false, ErrUnavailable
}

func (unavailable) ScoreAmounts(context.Context, []float64) ([]bool, error) {
	return nil, ErrUnavailable
}
