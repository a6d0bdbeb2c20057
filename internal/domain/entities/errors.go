package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the aggregates, the stores and the use cases.
// Typed errors unwrap to the sentinel of their kind so callers can match with errors.Is.
var (
	ErrInvalidTransition                = errors.New("invalid transition")
	ErrVehicleAlreadyHasActiveWorkOrder = errors.New("vehicle already has an active work order")
	ErrDuplicateInvoice                 = errors.New("work order already invoiced")
	ErrAllocationConflict               = errors.New("sequence allocation conflict")
	ErrStaleWrite                       = errors.New("stale write")
	ErrValidation                       = errors.New("validation failure")
	ErrReconciliationRequired           = errors.New("reconciliation required")
	ErrStoreTimeout                     = errors.New("store operation timed out")
	ErrDuplicateClient                  = errors.New("client with this nif already exists")
	ErrDuplicateVehicle                 = errors.New("vehicle with this license plate or vin already exists")
	ErrPaymentInProgress                = errors.New("invoice payment already in progress")
)

// IsRetryable reports whether err may succeed if the whole operation is attempted again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAllocationConflict) ||
		errors.Is(err, ErrStaleWrite) ||
		errors.Is(err, ErrStoreTimeout)
}

// InvalidTransitionError names the current status, the attempted transition and the
// statuses that would have allowed it.
type InvalidTransitionError struct {
	Current    string
	Transition string
	Required   []string
	// Reason is set when the status was acceptable but another precondition was not.
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition %q from status %s (requires %s)",
		e.Transition, e.Current, strings.Join(e.Required, "|"))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ActiveWorkOrderConflictError is returned when the guard rejects a second active work order.
type ActiveWorkOrderConflictError struct {
	VehicleID               string
	ExistingWorkOrderID     string
	ExistingWorkOrderNumber string
}

func (e *ActiveWorkOrderConflictError) Error() string {
	if e.ExistingWorkOrderNumber == "" {
		return fmt.Sprintf("vehicle %s already has an active work order", e.VehicleID)
	}
	return fmt.Sprintf("vehicle %s already has an active work order (%s)", e.VehicleID, e.ExistingWorkOrderNumber)
}

func (e *ActiveWorkOrderConflictError) Unwrap() error { return ErrVehicleAlreadyHasActiveWorkOrder }

// ValidationError reports malformed item, quote or catalog input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ReconciliationRequiredError is returned when an invoice was written but the work order
// could not be moved to Invoiced. The ids identify both halves for the reconciliation pass.
type ReconciliationRequiredError struct {
	WorkOrderID string
	InvoiceID   string
	Err         error
}

func (e *ReconciliationRequiredError) Error() string {
	return fmt.Sprintf("invoice %s written but work order %s not marked invoiced: %v", e.InvoiceID, e.WorkOrderID, e.Err)
}

// Is matches the reconciliation kind; Unwrap exposes the underlying store failure.
func (e *ReconciliationRequiredError) Is(target error) bool { return target == ErrReconciliationRequired }

func (e *ReconciliationRequiredError) Unwrap() error { return e.Err }
