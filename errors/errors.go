// Package errors provides error handling for resonance.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// On top of the re-exports it defines the integer status codes that external
// layers consume, one sentinel per code, and CodeOf to map any error produced
// by this module back to its code.
//
// Usage:
//
//	// Fail closed with a sentinel plus detail
//	return errors.WithDetailf(errors.ErrBudgetFailure, "current=%d amount=%d", cur, amt)
//
//	// Recover the integer status at an ABI boundary
//	status := errors.CodeOf(err)
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf

	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors, one per status code.
// Wrap these with errors.Wrap() or WithDetail() to add context while preserving the code.
var (
	// ErrConservationViolation indicates the region byte sum is not 0 mod 96
	ErrConservationViolation = New("conservation violation")

	// ErrWitnessInvalid indicates a witness is missing, malformed, or does not match its buffer
	ErrWitnessInvalid = New("witness invalid")

	// ErrBudgetFailure indicates an allocation or release would leave the budget outside [0,95]
	ErrBudgetFailure = New("budget failure")

	// ErrAllocationFailure indicates a handle or array could not be constructed
	ErrAllocationFailure = New("allocation failure")

	// ErrInvalidState indicates an invalid lifecycle transition (double attach, double commit, use after close)
	ErrInvalidState = New("invalid state")

	// ErrInvalidArgument indicates a nil, empty, or out-of-range argument
	ErrInvalidArgument = New("invalid argument")
)

// ErrNotFound indicates a requested record does not exist.
// It carries no status code of its own; CodeOf reports it as InvalidState.
var ErrNotFound = New("not found")

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsConservationViolation checks if an error is or wraps ErrConservationViolation
func IsConservationViolation(err error) bool {
	return err != nil && Is(err, ErrConservationViolation)
}

// IsInvalidState checks if an error is or wraps ErrInvalidState
func IsInvalidState(err error) bool {
	return err != nil && Is(err, ErrInvalidState)
}

// IsBudgetFailure checks if an error is or wraps ErrBudgetFailure
func IsBudgetFailure(err error) bool {
	return err != nil && Is(err, ErrBudgetFailure)
}

// NewInvalidArgumentError creates an invalid-argument error with a formatted message
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidArgument, Newf(format, args...).Error())
}

// NewInvalidStateError creates an invalid-state error with a formatted message
func NewInvalidStateError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidState, Newf(format, args...).Error())
}
