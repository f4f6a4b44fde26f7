package reporting

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPeriod indicates the selector is not one of week, month, year, all or custom.
	ErrUnknownPeriod = errors.New("unknown report period")
	// ErrMissingBound indicates a custom range without both dates.
	ErrMissingBound = errors.New("custom range requires both start and end dates")
	// ErrMalformedBound indicates a custom bound that is not a yyyy-MM-dd date.
	ErrMalformedBound = errors.New("custom range dates must use yyyy-MM-dd")
	// ErrInvertedRange indicates a custom range whose start is after its end.
	ErrInvertedRange = errors.New("custom range start is after end")
	// ErrFutureBound indicates a custom bound later than today.
	ErrFutureBound = errors.New("custom range must not extend into the future")

	// ErrSuperseded is returned by Session.Refresh when a newer refresh was
	// initiated while this one was in flight.
	ErrSuperseded = errors.New("report request superseded by a newer one")
)

// ValidationError reports a user-supplied range the resolver rejected.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
