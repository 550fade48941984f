package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when there is no history to forecast from.
	ErrNoData = errors.New("no data available for prediction")

	// ErrFeaturePreparationFailed is returned when the feature frame cannot
	// produce a model input row.
	ErrFeaturePreparationFailed = errors.New("feature preparation failed")

	// ErrPredictionFailed is returned when not a single rollout step produced
	// a prediction.
	ErrPredictionFailed = errors.New("prediction failed")
)

// InsufficientDataError reports that a symbol does not have enough history
// to train on. It is a client error, not a system failure.
type InsufficientDataError struct {
	Symbol string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s", e.Symbol, e.Reason)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}
