package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWorkDayRange is returned when a work-day range resolves to
	// from > to, or an endpoint falls outside the period.
	ErrWorkDayRange = errors.New("invalid work-day range")

	// ErrNoWorkDays is returned when a work-day spec leaves no day to
	// absorb the hours to distribute. Division by zero is a reported
	// failure, never a silent zero.
	ErrNoWorkDays = errors.New("work-day spec has no work days")

	// ErrProjectHours is returned when a client's projects together expect
	// more hours than the client itself. Project hours are a subset of the
	// client total, not additional to it.
	ErrProjectHours = errors.New("project hours exceed client hours")

	// ErrPeriodOrder is returned when periods are out of start order or
	// overlap. Each day belongs to at most one period.
	ErrPeriodOrder = errors.New("periods overlap or are out of order")
)

// =============================================================================
// CONFIG ERROR - Fatal, surfaced before any computation
// =============================================================================

// ConfigError reports an invalid schedule. It wraps one of the sentinel
// errors above and carries enough context to point at the offending period.
type ConfigError struct {
	PeriodStart Date
	Client      string
	Detail      string
	Err         error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("period %s: %s", e.PeriodStart, e.Detail)
	if e.Client != "" {
		msg = fmt.Sprintf("period %s, client %q: %s", e.PeriodStart, e.Client, e.Detail)
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError returns true if the error originated from schedule
// validation rather than computation.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
