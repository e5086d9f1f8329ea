package errors

import "fmt"

// Code is the integer status reported across the module boundary.
// Values are frozen once published; new codes are only ever appended.
type Code int

const (
	OK                    Code = 0
	ConservationViolation Code = 1
	WitnessInvalid        Code = 2
	BudgetFailure         Code = 3
	AllocationFailure     Code = 4
	InvalidState          Code = 5
	InvalidArgument       Code = 6
)

var codeNames = map[Code]string{
	OK:                    "OK",
	ConservationViolation: "CONSERVATION_VIOLATION",
	WitnessInvalid:        "WITNESS_INVALID",
	BudgetFailure:         "BUDGET_FAILURE",
	AllocationFailure:     "ALLOCATION_FAILURE",
	InvalidState:          "INVALID_STATE",
	InvalidArgument:       "INVALID_ARGUMENT",
}

// String returns the ABI name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// sentinels is ordered so that the first match wins when an error wraps more than one.
var sentinels = []struct {
	err  error
	code Code
}{
	{ErrConservationViolation, ConservationViolation},
	{ErrWitnessInvalid, WitnessInvalid},
	{ErrBudgetFailure, BudgetFailure},
	{ErrAllocationFailure, AllocationFailure},
	{ErrInvalidState, InvalidState},
	{ErrInvalidArgument, InvalidArgument},
}

// CodeOf maps an error to its status code.
// nil is OK; errors that wrap none of the sentinels are reported as InvalidState,
// the conservative failure for an unrecognised condition.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	for _, s := range sentinels {
		if Is(err, s.err) {
			return s.code
		}
	}
	return InvalidState
}
