package workflow

import (
	"errors"
	"fmt"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

var (
	// ErrInvalidTransition is returned when a state transition is not configured
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)

// Workflow error taxonomy
var (
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionNotMet = errors.New("precondition not met")
	ErrStageLocked        = errors.New("stage locked")
	ErrNoItemsToDecide    = errors.New("no items to decide")
	ErrLocked             = errors.New("locked")
	ErrStorageFailure     = errors.New("storage failure")
	ErrVersionConflict    = errors.New("version conflict")
	ErrNotFound           = errors.New("not found")
)

// TransitionError explains why a requested transition was refused
type TransitionError struct {
	Code    error
	Kind    entity.Kind
	Field   entity.Field
	From    State
	To      State
	Role    entity.Role
	Message string
}

func (e *TransitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s %s %s -> %s: %s", e.Code, e.Kind, e.Field, e.From, e.To, e.Message)
}

// Unwrap exposes the taxonomy sentinel to errors.Is
func (e *TransitionError) Unwrap() error {
	return e.Code
}

// Validationf builds a validation error with a formatted reason
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StorageFailure wraps a collaborator error so it is surfaced as-is under ErrStorageFailure.
// Version conflicts and not-found results keep their own sentinel.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// Code returns a stable machine-readable code for a workflow error
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrPreconditionNotMet):
		return "PRECONDITION_NOT_MET"
	case errors.Is(err, ErrStageLocked):
		return "STAGE_LOCKED"
	case errors.Is(err, ErrNoItemsToDecide):
		return "NO_ITEMS_TO_DECIDE"
	case errors.Is(err, ErrLocked):
		return "LOCKED"
	case errors.Is(err, ErrVersionConflict):
		return "VERSION_CONFLICT"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrStorageFailure):
		return "STORAGE_FAILURE"
	}
	return "INTERNAL"
}
