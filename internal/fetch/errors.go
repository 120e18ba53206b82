package fetch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoData marks a request that produced nothing usable after all
	// attempts. Callers treat it as an empty result.
	ErrNoData = errors.New("no data")
	// ErrMalformedResponse marks a 2xx response whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrFatal marks a failure that retrying cannot fix, such as a rejected API key.
	ErrFatal = errors.New("fatal request error")
)

type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNoData
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoData:
		return "no_data"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify collapses an error returned by this package into an Outcome so
// callers can tell "no more data" apart from "stop the run".
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrFatal), errors.Is(err, context.Canceled):
		return OutcomeFatal
	default:
		return OutcomeNoData
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err so that RetryPolicy.Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
