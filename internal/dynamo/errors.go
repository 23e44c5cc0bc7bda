package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model and mesh operations.
var (
	// ErrDomain indicates a non-physical input (non-positive length, mass, ...).
	ErrDomain = errors.New("dynamo: input outside physical domain")

	// ErrNumericInstability indicates an iterative solve stopped early.
	ErrNumericInstability = errors.New("dynamo: numeric instability (solver stalled)")

	// ErrInvalidState indicates a computed value was NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrNotConfigured indicates a tick before any configuration was applied.
	ErrNotConfigured = errors.New("dynamo: simulation not configured")
)

// DomainError names the offending parameter.
type DomainError struct {
	Param  string
	Value  float64
	Reason string
}

func NewDomainError(param string, value float64, reason string) *DomainError {
	return &DomainError{Param: param, Value: value, Reason: reason}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s=%g %s", ErrDomain.Error(), e.Param, e.Value, e.Reason)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// RequirePositive returns a DomainError unless v > 0 and finite.
func RequirePositive(param string, v float64) error {
	if !IsFinite(v) || v <= 0 {
		return NewDomainError(param, v, "must be positive")
	}
	return nil
}

// RequireNonNegative returns a DomainError unless v >= 0 and finite.
func RequireNonNegative(param string, v float64) error {
	if !IsFinite(v) || v < 0 {
		return NewDomainError(param, v, "must be non-negative")
	}
	return nil
}
