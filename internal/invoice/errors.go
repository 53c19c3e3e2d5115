package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRecord is matched by every ValidationError: the source project cannot be
	// invoiced as it stands.
	ErrInvalidRecord = errors.New("training project is not invoiceable")
)

// ValidationError lists every precondition a project (or a grouped invoice) failed.
type ValidationError struct {
	// Subject identifies what was validated, usually the project title.
	Subject string

	// Violations holds one human readable entry per failed rule, in rule order.
	Violations []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Subject, strings.Join(e.Violations, "; "))
}

// Is lets errors.Is(err, ErrInvalidRecord) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// GroupError reports a customer×month partition that could not be turned into an invoice.
type GroupError struct {
	Customer string
	Year     int
	Month    time.Month
	Err      error
}

// Key is the label used for the partition in error reports, e.g. "Acme 2025年3月".
func (e *GroupError) Key() string {
	return fmt.Sprintf("%s %d年%d月", e.Customer, e.Year, int(e.Month))
}

// Error implements the error interface.
func (e *GroupError) Error() string {
	return fmt.Sprintf("invoice: grouped invoice for %s failed: %v", e.Key(), e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *GroupError) Unwrap() error {
	return e.Err
}
