package api

import (
	"errors"
	"net/http"

	service "github.com/okian/pickgrader/internal/app"
	"github.com/okian/pickgrader/internal/adapters/quota"
	"github.com/okian/pickgrader/internal/adapters/repository"
	"github.com/okian/pickgrader/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrBackpressure    = errors.New("backpressure")
	ErrQuotaExhausted  = errors.New("quota exhausted")
	ErrNotFound        = errors.New("not found")
	ErrArchiveDisabled = errors.New("archive disabled")
	ErrInternal        = errors.New("internal error")
)

// Stable error codes returned in error bodies.
const (
	CodeInvalidFactorInput      = scoring.KindInvalidFactorInput
	CodeInvalidOddsInput        = scoring.KindInvalidOddsInput
	CodeInvalidProbabilityInput = scoring.KindInvalidProbabilityInput
	CodeBadRequest              = "bad_request"
	CodeBackpressure            = "backpressure"
	CodeQuotaExhausted          = "quota_exhausted"
	CodeNotFound                = "not_found"
	CodeArchiveDisabled         = "archive_disabled"
	CodeInternal                = "internal_error"
)

// OpError ties a failure to the handler operation that saw it.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an OpError with no underlying cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind returns an OpError of the given kind caused by err.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap classifies err by its domain sentinel and attaches op.
func Wrap(op string, err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	switch {
	case scoring.Kind(err) != "",
		errors.Is(err, service.ErrMissingGameID),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrBatchTooLarge),
		errors.Is(err, repository.ErrInvalidLimit):
		return ErrBadRequest
	case errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, quota.ErrExhausted):
		return ErrQuotaExhausted
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, service.ErrArchiveDisabled):
		return ErrArchiveDisabled
	default:
		return ErrInternal
	}
}

// statusAndCode maps an error to its HTTP status and stable code.
func statusAndCode(err error) (int, string) {
	switch kind := scoring.Kind(err); kind {
	case scoring.KindInvalidFactorInput, scoring.KindInvalidOddsInput, scoring.KindInvalidProbabilityInput:
		return http.StatusBadRequest, kind
	}

	kind := kindOf(err)
	var oe *OpError
	if errors.As(err, &oe) {
		kind = oe.Kind
	}
	switch kind {
	case ErrBadRequest:
		return http.StatusBadRequest, CodeBadRequest
	case ErrBackpressure:
		return http.StatusTooManyRequests, CodeBackpressure
	case ErrQuotaExhausted:
		return http.StatusTooManyRequests, CodeQuotaExhausted
	case ErrNotFound:
		return http.StatusNotFound, CodeNotFound
	case ErrArchiveDisabled:
		return http.StatusServiceUnavailable, CodeArchiveDisabled
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
