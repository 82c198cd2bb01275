package emissions

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownActivity matches any UnknownActivityError.
	ErrUnknownActivity = errors.New("unknown activity")
	// ErrNegativeQuantity matches any NegativeQuantityError.
	ErrNegativeQuantity = errors.New("negative quantity")
	// ErrInvalidQuantity matches any InvalidQuantityError.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrEmissionOverflow matches any OverflowError.
	ErrEmissionOverflow = errors.New("emission overflow")
)

// UnknownActivityError reports an activity key missing from the factor table.
type UnknownActivityError struct {
	Activity string
}

func (e *UnknownActivityError) Error() string {
	return fmt.Sprintf("unknown activity %q", e.Activity)
}

// Is lets errors.Is match against ErrUnknownActivity.
func (e *UnknownActivityError) Is(target error) bool {
	return target == ErrUnknownActivity
}

// NegativeQuantityError reports an activity supplied with a quantity below zero.
type NegativeQuantityError struct {
	Activity string
	Quantity float64
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("negative quantity for activity %q: %v", e.Activity, e.Quantity)
}

// Is lets errors.Is match against ErrNegativeQuantity.
func (e *NegativeQuantityError) Is(target error) bool {
	return target == ErrNegativeQuantity
}

// InvalidQuantityError reports a quantity that is NaN or infinite.
type InvalidQuantityError struct {
	Activity string
	Quantity float64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity for activity %q must be a finite number, got %v", e.Activity, e.Quantity)
}

// Is lets errors.Is match against ErrInvalidQuantity.
func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// OverflowError reports an emission or running total that exceeds the float64 range.
type OverflowError struct {
	Activity string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("emissions for activity %q exceed the representable range", e.Activity)
}

// Is lets errors.Is match against ErrEmissionOverflow.
func (e *OverflowError) Is(target error) bool {
	return target == ErrEmissionOverflow
}

// IsValidation reports whether err is one of the calculation validation failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownActivity) ||
		errors.Is(err, ErrNegativeQuantity) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmissionOverflow)
}

// emission validates qty and converts it with factor. total is the running sum
// the result will be added to, so an overflowing sum is caught at the activity
// that causes it.
func emission(activity string, qty, factor, total float64) (float64, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0, &InvalidQuantityError{Activity: activity, Quantity: qty}
	}
	if qty < 0 {
		return 0, &NegativeQuantityError{Activity: activity, Quantity: qty}
	}
	kg := qty * factor
	if math.IsInf(kg, 0) || math.IsInf(total+kg, 0) {
		return 0, &OverflowError{Activity: activity}
	}
	return kg, nil
}
