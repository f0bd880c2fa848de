package scoring

import (
	"errors"
	"fmt"
)

// Sentinel kinds for scoring errors. Typed errors below unwrap to these.
var (
	ErrInvalidFactorInput      = errors.New("invalid factor input")
	ErrInvalidOddsInput        = errors.New("invalid odds input")
	ErrInvalidProbabilityInput = errors.New("invalid probability input")
	ErrInvalidWeights          = errors.New("invalid weights")
	ErrEmptyInput              = errors.New("no factors or market supplied")
)

// FactorError reports which factor was rejected and why.
type FactorError struct {
	Factor string
	Value  float64
	Reason string
}

func (e *FactorError) Error() string {
	if e.Reason == reasonMissing {
		return fmt.Sprintf("%s: %s is missing", ErrInvalidFactorInput, e.Factor)
	}
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidFactorInput, e.Factor, e.Value, e.Reason)
}

func (e *FactorError) Unwrap() error { return ErrInvalidFactorInput }

// InputError reports a rejected market input field.
type InputError struct {
	Field  string
	Value  float64
	Reason string
	Kind   error
}

func (e *InputError) Error() string {
	if e.Reason == reasonMissing {
		return fmt.Sprintf("%s: %s is missing", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s=%v %s", e.Kind, e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Kind }

const (
	reasonMissing     = "missing"
	reasonNotFinite   = "is not finite"
	reasonOutOfRange  = "is out of range"
	reasonZeroOdds    = "is zero"
	reasonNotAmerican = "is not a valid American price"
)

// Error kinds as stable strings, used for metrics labels and API error codes.
const (
	KindInvalidFactorInput      = "invalid_factor_input"
	KindInvalidOddsInput        = "invalid_odds_input"
	KindInvalidProbabilityInput = "invalid_probability_input"
	KindInvalidWeights          = "invalid_weights"
	KindEmptyInput              = "empty_input"
)

// Kind returns the stable kind string for a scoring error, or "" when err is
// not one of this package's errors.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFactorInput):
		return KindInvalidFactorInput
	case errors.Is(err, ErrInvalidOddsInput):
		return KindInvalidOddsInput
	case errors.Is(err, ErrInvalidProbabilityInput):
		return KindInvalidProbabilityInput
	case errors.Is(err, ErrInvalidWeights):
		return KindInvalidWeights
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	default:
		return ""
	}
}
